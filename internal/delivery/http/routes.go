package http

import (
	"github.com/gin-gonic/gin"

	"github.com/agentassist/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health and stats endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/stats", handler.GetStats)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/chat", handler.ProcessChat)
		api.POST("/freshdesk", handler.ExportToTicket)
		api.GET("/products", handler.ListProducts)
		api.GET("/product/:model", handler.GetProductDetails)
		api.POST("/reload", handler.ReloadIndex)
	}

	return router
}
