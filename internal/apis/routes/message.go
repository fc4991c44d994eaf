package routes

import (
	"askpdf-ai/internal/apis/middlewares"
	"askpdf-ai/internal/di"
	"log"

	"github.com/gin-gonic/gin"
)

func SetupMessageRoutes(router *gin.Engine) {
	messageHandler, err := di.GetMessageHandler()
	if err != nil {
		log.Fatalf("Failed to get message handler: %v", err)
	}

	protected := router.Group("/api/message")
	protected.Use(middlewares.AuthMiddleware())
	{
		// Streaming question endpoint
		protected.POST("", messageHandler.SendMessage)
	}
}
