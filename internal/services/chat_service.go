package services

import (
	"askpdf-ai/internal/apis/dtos"
	"askpdf-ai/internal/constants"
	"askpdf-ai/internal/models"
	"askpdf-ai/internal/repositories"
	"askpdf-ai/internal/utils"
	"askpdf-ai/pkg/embedding"
	"askpdf-ai/pkg/llm"
	"askpdf-ai/pkg/vectorstore"
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatService interface {
	// AskQuestion runs the question pipeline and returns the answer as a
	// stream of text chunks. By the time it returns, the user's message is
	// already persisted; the assistant's reply is persisted by a background
	// goroutine once the stream completes without error.
	AskQuestion(ctx context.Context, userID string, req *dtos.SendMessageRequest) (<-chan llm.StreamChunk, uint, error)
	GetFileMessages(userID string, fileID string, req *dtos.MessageListRequest) (*dtos.MessageListResponse, uint, error)
}

type chatService struct {
	fileRepo    repositories.FileRepository
	messageRepo repositories.MessageRepository
	llmClient   llm.Client
	embedder    embedding.Embedder
	vectorStore vectorstore.Store
}

func NewChatService(fileRepo repositories.FileRepository, messageRepo repositories.MessageRepository, llmClient llm.Client, embedder embedding.Embedder, vectorStore vectorstore.Store) ChatService {
	return &chatService{
		fileRepo:    fileRepo,
		messageRepo: messageRepo,
		llmClient:   llmClient,
		embedder:    embedder,
		vectorStore: vectorStore,
	}
}

func (s *chatService) AskQuestion(ctx context.Context, userID string, req *dtos.SendMessageRequest) (<-chan llm.StreamChunk, uint, error) {
	if userID == "" {
		return nil, http.StatusUnauthorized, errors.New("unauthorized")
	}
	userIDPrimitive, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, http.StatusUnauthorized, errors.New("unauthorized")
	}

	file, err := s.fileRepo.FindByID(req.FileID)
	if err != nil || file == nil || file.UserID.Hex() != userID {
		return nil, http.StatusNotFound, errors.New("file not found")
	}

	// The user's turn is part of the log whatever happens downstream.
	userMessage := models.NewMessage(userIDPrimitive, file.ID, true, req.Message)
	if err := s.messageRepo.Create(userMessage); err != nil {
		return nil, http.StatusInternalServerError, err
	}

	passages := s.retrieveContext(ctx, file, req.Message)
	history := s.loadHistory(file.ID, userMessage.ID)

	stream, err := s.llmClient.StreamAnswer(ctx, llm.AnswerRequest{
		Question: req.Message,
		Passages: passages,
		History:  history,
	})
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	return s.teeAndPersist(ctx, stream, userIDPrimitive, file.ID), http.StatusOK, nil
}

// retrieveContext embeds the question and queries the file's namespace.
// Files that are not fully indexed yield no context rather than an
// error, so the answer degrades to generation without grounding.
func (s *chatService) retrieveContext(ctx context.Context, file *models.File, question string) []string {
	if file.UploadStatus != models.UploadStatusSuccess {
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		log.Printf("Error embedding question for file %s: %v", file.ID.Hex(), err)
		return nil
	}

	results, err := s.vectorStore.Query(ctx, file.ID.Hex(), vectors[0], constants.RetrievalTopK)
	if err != nil {
		log.Printf("Error querying vector store for file %s: %v", file.ID.Hex(), err)
		return nil
	}

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Text
	}
	return passages
}

// loadHistory replays the last turns before the current question in
// chronological order. The freshly inserted user message is excluded so
// it is not both history and question.
func (s *chatService) loadHistory(fileID primitive.ObjectID, currentMessageID primitive.ObjectID) []llm.HistoryMessage {
	messages, err := s.messageRepo.FindRecent(fileID, constants.ChatHistoryWindow+1)
	if err != nil {
		log.Printf("Error loading chat history for file %s: %v", fileID.Hex(), err)
		return nil
	}

	history := make([]llm.HistoryMessage, 0, constants.ChatHistoryWindow)
	// messages are newest first; walk backwards to restore chronology.
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].ID == currentMessageID {
			continue
		}
		role := "assistant"
		if messages[i].IsUserMessage {
			role = "user"
		}
		history = append(history, llm.HistoryMessage{Role: role, Content: messages[i].Text})
	}
	if len(history) > constants.ChatHistoryWindow {
		history = history[len(history)-constants.ChatHistoryWindow:]
	}
	return history
}

// teeAndPersist forwards every chunk to the caller while accumulating
// the full answer. On a clean close the assistant message is written
// with a fresh context so a client disconnect after the final chunk
// cannot lose the reply. On a stream error nothing is persisted.
// Once ctx is done the caller has stopped reading; forwarding stops but
// the drain continues so the answer still settles.
func (s *chatService) teeAndPersist(ctx context.Context, stream <-chan llm.StreamChunk, userID, fileID primitive.ObjectID) <-chan llm.StreamChunk {
	out := make(chan llm.StreamChunk)

	go func() {
		defer close(out)

		var answer strings.Builder
		failed := false
		forwarding := true
		for chunk := range stream {
			if chunk.Err != nil {
				failed = true
			} else {
				answer.WriteString(chunk.Content)
			}
			if !forwarding {
				continue
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				forwarding = false
			}
		}

		if failed || answer.Len() == 0 {
			return
		}

		message := models.NewMessage(userID, fileID, false, answer.String())
		if err := s.messageRepo.Create(message); err != nil {
			log.Printf("Error persisting assistant message for file %s: %v", fileID.Hex(), err)
		}
	}()

	return out
}

func (s *chatService) GetFileMessages(userID string, fileID string, req *dtos.MessageListRequest) (*dtos.MessageListResponse, uint, error) {
	if userID == "" {
		return nil, http.StatusUnauthorized, errors.New("unauthorized")
	}

	file, err := s.fileRepo.FindByID(fileID)
	if err != nil || file == nil || file.UserID.Hex() != userID {
		return nil, http.StatusNotFound, errors.New("file not found")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = constants.MessagePageDefaultLimit
	}
	if limit > constants.MessagePageMaxLimit {
		limit = constants.MessagePageMaxLimit
	}

	var cursor *primitive.ObjectID
	if req.Cursor != "" {
		cursorID, err := primitive.ObjectIDFromHex(req.Cursor)
		if err != nil {
			return nil, http.StatusBadRequest, errors.New("invalid cursor")
		}
		cursor = &cursorID
	}

	// Fetch one past the page to learn whether another page exists.
	window, err := s.messageRepo.FindWindow(file.ID, limit+1, cursor)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	resp := &dtos.MessageListResponse{Messages: []dtos.MessageResponse{}}
	if len(window) > limit {
		resp.NextCursor = utils.ToStringPtr(window[limit].ID.Hex())
		window = window[:limit]
	}

	for _, m := range window {
		resp.Messages = append(resp.Messages, dtos.MessageResponse{
			ID:            m.ID.Hex(),
			FileID:        m.FileID.Hex(),
			IsUserMessage: m.IsUserMessage,
			Text:          m.Text,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	return resp, http.StatusOK, nil
}
