package routes

import (
	"github.com/gin-gonic/gin"

	"vulnhawk/internal/handlers"
)

func InitScanRoutes(router *gin.RouterGroup, h *handlers.ScanHandler) {
	scanRoutes := router.Group("/scans")
	{
		scanRoutes.POST("", h.StartScan)
		scanRoutes.GET("", h.ListScans)
		scanRoutes.GET("/:id", h.GetScan)
		scanRoutes.GET("/:id/report", h.GetReport)
		scanRoutes.DELETE("/:id", h.CancelScan)
	}

	router.GET("/history", h.History)
	router.GET("/tools", h.ListTools)
	router.GET("/profiles", h.ListProfiles)
}
