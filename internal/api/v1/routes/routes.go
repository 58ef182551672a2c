package routes

import (
	"github.com/gin-gonic/gin"

	"video-qa/internal/api/v1/handlers"
	"video-qa/internal/api/v1/services"
)

// ServiceContainer holds the services backing the v1 routes
type ServiceContainer struct {
	VideoQAService services.VideoQAService
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	videoHandler := handlers.NewVideoHandler(container.VideoQAService)
	videos := router.Group("/videos/:id")
	{
		videos.POST("/index", videoHandler.BuildIndex)
		videos.GET("/index", videoHandler.GetIndex)
		videos.POST("/search", videoHandler.Search)
		videos.POST("/chat", videoHandler.Chat)
	}
}
