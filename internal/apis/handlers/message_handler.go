package handlers

import (
	"askpdf-ai/internal/apis/dtos"
	"askpdf-ai/internal/services"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	chatService services.ChatService
}

func NewMessageHandler(chatService services.ChatService) *MessageHandler {
	if chatService == nil {
		log.Fatal("Chat service cannot be nil")
	}
	return &MessageHandler{
		chatService: chatService,
	}
}

// @Summary Send Message
// @Description Ask a question about a file; the answer streams back as a raw chunked text body
// @Accept json
// @Produce text/plain
// @Param sendMessageRequest body dtos.SendMessageRequest true "Send message request"
// @Success 200 {string} string
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req dtos.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	stream, statusCode, err := h.chatService.AskQuestion(c.Request.Context(), c.GetString("userID"), &req)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	// The body is the answer text itself, flushed chunk by chunk.
	// This is not SSE: no event framing, no envelope.
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)
	for chunk := range stream {
		if chunk.Err != nil {
			log.Printf("Answer stream error: %v", chunk.Err)
			// Headers are already out; all we can do is stop the body.
			return
		}
		if _, err := c.Writer.WriteString(chunk.Content); err != nil {
			// Client went away; the service still settles persistence.
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// @Summary List File Messages
// @Description Page through a file's message log, newest first
// @Produce json
// @Param limit query int false "Page size (1-100, default 10)"
// @Param cursor query string false "Keyset cursor from a previous page"
// @Success 200 {object} dtos.Response
func (h *MessageHandler) ListFileMessages(c *gin.Context) {
	var req dtos.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	response, statusCode, err := h.chatService.GetFileMessages(c.GetString("userID"), c.Param("id"), &req)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}
