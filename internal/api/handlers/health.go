package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camwatch/camwatch-go/pkg/utils"
)

// Health returns the health status of the service
func (h *Handlers) Health(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "camwatch",
		"cameras":   len(h.cfg.Capture.Cameras),
	})
}
