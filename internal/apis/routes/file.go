package routes

import (
	"askpdf-ai/internal/apis/middlewares"
	"askpdf-ai/internal/di"
	"log"

	"github.com/gin-gonic/gin"
)

func SetupFileRoutes(router *gin.Engine) {
	fileHandler, err := di.GetFileHandler()
	if err != nil {
		log.Fatalf("Failed to get file handler: %v", err)
	}
	messageHandler, err := di.GetMessageHandler()
	if err != nil {
		log.Fatalf("Failed to get message handler: %v", err)
	}

	protected := router.Group("/api/files")
	protected.Use(middlewares.AuthMiddleware())
	{
		protected.POST("", fileHandler.Upload)
		protected.GET("", fileHandler.List)
		protected.GET("/:id", fileHandler.GetByID)
		protected.DELETE("/:id", fileHandler.Delete)

		// Message log of a file
		protected.GET("/:id/messages", messageHandler.ListFileMessages)
	}
}
