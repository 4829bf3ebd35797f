package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/camwatch/camwatch-go/pkg/utils"
)

// GetWeatherAlerts returns the cached active alerts for the monitored zone.
func (h *Handlers) GetWeatherAlerts(c *gin.Context) {
	utils.SendSuccess(c, h.alerts.Weather())
}

// GetStorms returns the cached active Atlantic hurricanes.
func (h *Handlers) GetStorms(c *gin.Context) {
	utils.SendSuccess(c, h.alerts.Storms())
}
