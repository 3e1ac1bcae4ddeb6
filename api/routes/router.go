package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vulnhawk/internal/handlers"
	"vulnhawk/internal/profiles"
	"vulnhawk/internal/services"
)

func InitRouter(scanService services.ScanService, profileStore *profiles.Store) *gin.Engine {
	router := gin.Default()

	scanHandlers := handlers.NewScanHandler(scanService, profileStore)

	api := router.Group("/api")
	{
		InitScanRoutes(api, scanHandlers)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
