package services

import (
	"askpdf-ai/internal/apis/dtos"
	"askpdf-ai/internal/models"
	"askpdf-ai/internal/repositories"
	"askpdf-ai/pkg/chunker"
	"askpdf-ai/pkg/embedding"
	"askpdf-ai/pkg/vectorstore"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FileService interface {
	Upload(userID string, req *dtos.UploadFileRequest) (*dtos.FileResponse, uint, error)
	List(userID string) (*dtos.FileListResponse, uint, error)
	GetByID(userID string, fileID string) (*dtos.FileResponse, uint, error)
	Delete(userID string, fileID string) (uint, error)
}

type fileService struct {
	fileRepo    repositories.FileRepository
	messageRepo repositories.MessageRepository
	chunker     *chunker.SentenceChunker
	embedder    embedding.Embedder
	vectorStore vectorstore.Store
}

func NewFileService(fileRepo repositories.FileRepository, messageRepo repositories.MessageRepository, textChunker *chunker.SentenceChunker, embedder embedding.Embedder, vectorStore vectorstore.Store) FileService {
	return &fileService{
		fileRepo:    fileRepo,
		messageRepo: messageRepo,
		chunker:     textChunker,
		embedder:    embedder,
		vectorStore: vectorStore,
	}
}

// Upload stores the file record as PENDING and kicks off indexing in the
// background. The response carries the PENDING record; the client polls
// the file endpoint for the final status.
func (s *fileService) Upload(userID string, req *dtos.UploadFileRequest) (*dtos.FileResponse, uint, error) {
	userIDPrimitive, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid user")
	}

	file := models.NewFile(userIDPrimitive, req.Name)
	if err := s.fileRepo.Create(file); err != nil {
		return nil, http.StatusInternalServerError, err
	}

	go s.indexFile(file, req.Pages)

	return toFileResponse(file), http.StatusCreated, nil
}

// indexFile runs the ingestion pipeline: chunk every page, embed the
// chunks and upsert them into the file's own namespace. Any failure
// marks the file FAILED; the chat pipeline then degrades to answering
// without document context instead of erroring.
func (s *fileService) indexFile(file *models.File, pages []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fileID := file.ID.Hex()
	if err := s.fileRepo.UpdateStatus(file.ID, models.UploadStatusProcessing, len(pages)); err != nil {
		log.Printf("Error marking file %s as processing: %v", fileID, err)
	}

	var chunks []chunker.Chunk
	for i, page := range pages {
		chunks = append(chunks, s.chunker.ChunkPage(fileID, i+1, page)...)
	}

	if len(chunks) == 0 {
		log.Printf("File %s produced no indexable chunks", fileID)
		s.markFailed(file, len(pages))
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		log.Printf("Error embedding file %s: %v", fileID, err)
		s.markFailed(file, len(pages))
		return
	}

	passages := make([]vectorstore.Passage, len(chunks))
	for i, c := range chunks {
		passages[i] = vectorstore.Passage{ID: c.ID, Text: c.Text, Page: c.Page}
	}

	if err := s.vectorStore.Upsert(ctx, fileID, passages, vectors); err != nil {
		log.Printf("Error upserting vectors for file %s: %v", fileID, err)
		s.markFailed(file, len(pages))
		return
	}

	if err := s.fileRepo.UpdateStatus(file.ID, models.UploadStatusSuccess, len(pages)); err != nil {
		log.Printf("Error marking file %s as indexed: %v", fileID, err)
		return
	}
	log.Printf("✨ Indexed file %s (%d pages, %d chunks)", fileID, len(pages), len(chunks))
}

func (s *fileService) markFailed(file *models.File, pageCount int) {
	if err := s.fileRepo.UpdateStatus(file.ID, models.UploadStatusFailed, pageCount); err != nil {
		log.Printf("Error marking file %s as failed: %v", file.ID.Hex(), err)
	}
}

func (s *fileService) List(userID string) (*dtos.FileListResponse, uint, error) {
	userIDPrimitive, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid user")
	}

	files, err := s.fileRepo.FindByUser(userIDPrimitive)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	resp := &dtos.FileListResponse{Files: make([]dtos.FileResponse, len(files))}
	for i := range files {
		resp.Files[i] = *toFileResponse(&files[i])
	}
	return resp, http.StatusOK, nil
}

func (s *fileService) GetByID(userID string, fileID string) (*dtos.FileResponse, uint, error) {
	file, statusCode, err := s.findOwnedFile(userID, fileID)
	if err != nil {
		return nil, statusCode, err
	}
	return toFileResponse(file), http.StatusOK, nil
}

// Delete removes the file record, its message log and its vector
// namespace. Ownership is checked the same way the chat pipeline does:
// an unowned file reads as not found.
func (s *fileService) Delete(userID string, fileID string) (uint, error) {
	file, statusCode, err := s.findOwnedFile(userID, fileID)
	if err != nil {
		return statusCode, err
	}

	if err := s.messageRepo.DeleteByFile(file.ID); err != nil {
		return http.StatusInternalServerError, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.vectorStore.DeleteNamespace(ctx, file.ID.Hex()); err != nil {
		log.Printf("Error deleting vector namespace %s: %v", file.ID.Hex(), err)
	}

	if err := s.fileRepo.Delete(file.ID); err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}

func (s *fileService) findOwnedFile(userID string, fileID string) (*models.File, uint, error) {
	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		return nil, http.StatusNotFound, errors.New("file not found")
	}
	if file == nil || file.UserID.Hex() != userID {
		return nil, http.StatusNotFound, errors.New("file not found")
	}
	return file, http.StatusOK, nil
}

func toFileResponse(file *models.File) *dtos.FileResponse {
	return &dtos.FileResponse{
		ID:           file.ID.Hex(),
		Name:         file.Name,
		UploadStatus: file.UploadStatus,
		PageCount:    file.PageCount,
		CreatedAt:    file.CreatedAt.Format(time.RFC3339),
	}
}
