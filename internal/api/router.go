package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/camwatch/camwatch-go/internal/api/handlers"
	"github.com/camwatch/camwatch-go/internal/api/middleware"
	"github.com/camwatch/camwatch-go/internal/config"
	"github.com/camwatch/camwatch-go/internal/core/alerts"
	"github.com/camwatch/camwatch-go/internal/core/snooze"
	"github.com/camwatch/camwatch-go/internal/core/storage"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, store *storage.PhotoStore, alertState *alerts.State, snoozes *snooze.Manager, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())

	h := handlers.NewHandlers(cfg, store, alertState, snoozes, logger)

	router.GET("/health", h.Health)

	api := router.Group("/api/v1")
	{
		cameras := api.Group("/cameras")
		{
			cameras.GET("", h.ListCameras)
			cameras.GET("/stats", h.GetCameraStats)
			cameras.GET("/:name/status", h.GetCameraStatus)
			cameras.GET("/:name/latest", h.GetLatestPhoto)
			cameras.GET("/:name/dates", h.ListPhotoDates)
			cameras.GET("/:name/photos/:date/:file", h.GetPhoto)
		}

		alertRoutes := api.Group("/alerts")
		{
			alertRoutes.GET("/weather", h.GetWeatherAlerts)
			alertRoutes.GET("/storms", h.GetStorms)
		}

		snoozeRoutes := api.Group("/snooze")
		{
			snoozeRoutes.GET("", h.GetSnoozes)
			snoozeRoutes.POST("/all", h.SnoozeAll)
			snoozeRoutes.DELETE("/all", h.UnsnoozeAll)
			snoozeRoutes.POST("/:name", h.SnoozeCamera)
			snoozeRoutes.DELETE("/:name", h.UnsnoozeCamera)
		}
	}

	return router
}
