package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// ErrInternalServer is the catch-all rendered by the recovery middleware.
var ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
