package handlers

import (
	"askpdf-ai/internal/apis/dtos"
	"askpdf-ai/internal/services"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	fileService services.FileService
}

func NewFileHandler(fileService services.FileService) *FileHandler {
	if fileService == nil {
		log.Fatal("File service cannot be nil")
	}
	return &FileHandler{
		fileService: fileService,
	}
}

// @Summary Upload File
// @Description Upload the extracted text of a document for indexing
// @Accept json
// @Produce json
// @Param uploadRequest body dtos.UploadFileRequest true "Upload request"
// @Success 201 {object} dtos.Response
func (h *FileHandler) Upload(c *gin.Context) {
	var req dtos.UploadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	response, statusCode, err := h.fileService.Upload(c.GetString("userID"), &req)
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

// @Summary List Files
// @Description List the authenticated user's files
// @Produce json
// @Success 200 {object} dtos.Response
func (h *FileHandler) List(c *gin.Context) {
	response, statusCode, err := h.fileService.List(c.GetString("userID"))
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

// @Summary Get File
// @Description Get one file, including its indexing status
// @Produce json
// @Success 200 {object} dtos.Response
func (h *FileHandler) GetByID(c *gin.Context) {
	response, statusCode, err := h.fileService.GetByID(c.GetString("userID"), c.Param("id"))
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

// @Summary Delete File
// @Description Delete a file, its messages and its index data
// @Produce json
// @Success 200 {object} dtos.Response
func (h *FileHandler) Delete(c *gin.Context) {
	statusCode, err := h.fileService.Delete(c.GetString("userID"), c.Param("id"))
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
		Data:    "File deleted",
	})
}
