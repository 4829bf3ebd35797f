package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/camwatch/camwatch-go/pkg/errors"
	"github.com/camwatch/camwatch-go/pkg/utils"
)

// ErrorHandlingMiddleware recovers panics and renders them in the standard
// response envelope.
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("Panic recovered in handler")

		utils.SendError(c, errors.ErrInternalServer.Code, errors.ErrInternalServer.Message)
		c.Abort()
	})
}
