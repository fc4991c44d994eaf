package services

import (
	"askpdf-ai/internal/apis/dtos"
	"askpdf-ai/internal/models"
	"askpdf-ai/pkg/llm"
	"askpdf-ai/pkg/vectorstore"
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFileRepo struct {
	files map[string]*models.File
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]*models.File)}
}

func (r *fakeFileRepo) Create(file *models.File) error {
	if file.ID.IsZero() {
		file.Base = models.NewBase()
	}
	r.files[file.ID.Hex()] = file
	return nil
}

func (r *fakeFileRepo) FindByID(fileID string) (*models.File, error) {
	return r.files[fileID], nil
}

func (r *fakeFileRepo) FindByUser(userID primitive.ObjectID) ([]models.File, error) {
	var out []models.File
	for _, f := range r.files {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) UpdateStatus(fileID primitive.ObjectID, status string, pageCount int) error {
	if f, ok := r.files[fileID.Hex()]; ok {
		f.UploadStatus = status
		f.PageCount = pageCount
	}
	return nil
}

func (r *fakeFileRepo) Delete(fileID primitive.ObjectID) error {
	delete(r.files, fileID.Hex())
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []models.Message
}

func (r *fakeMessageRepo) Create(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID.IsZero() {
		message.Base = models.NewBase()
	}
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) FindWindow(fileID primitive.ObjectID, fetchLimit int, cursor *primitive.ObjectID) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []models.Message
	for _, m := range r.messages {
		if m.FileID == fileID {
			filtered = append(filtered, m)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID.Hex() > filtered[j].ID.Hex()
	})

	if cursor != nil {
		start := -1
		for i, m := range filtered {
			if m.ID == *cursor {
				start = i
				break
			}
		}
		if start == -1 {
			return nil, nil
		}
		filtered = filtered[start:]
	}

	if len(filtered) > fetchLimit {
		filtered = filtered[:fetchLimit]
	}
	return filtered, nil
}

func (r *fakeMessageRepo) FindRecent(fileID primitive.ObjectID, count int) ([]models.Message, error) {
	return r.FindWindow(fileID, count, nil)
}

func (r *fakeMessageRepo) DeleteByFile(fileID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []models.Message
	for _, m := range r.messages {
		if m.FileID != fileID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *fakeMessageRepo) byFile(fileID primitive.ObjectID) []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.FileID == fileID {
			out = append(out, m)
		}
	}
	return out
}

type fakeLLMClient struct {
	chunks  []llm.StreamChunk
	lastReq llm.AnswerRequest
	err     error
}

func (c *fakeLLMClient) StreamAnswer(ctx context.Context, req llm.AnswerRequest) (<-chan llm.StreamChunk, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range c.chunks {
			out <- chunk
		}
	}()
	return out, nil
}

func (c *fakeLLMClient) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{Name: "fake", Provider: "fake"}
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func newChatFixture(t *testing.T, status string) (ChatService, *fakeFileRepo, *fakeMessageRepo, *fakeLLMClient, *models.File, string) {
	t.Helper()

	fileRepo := newFakeFileRepo()
	messageRepo := &fakeMessageRepo{}
	llmClient := &fakeLLMClient{}
	store := vectorstore.NewMemoryStore()

	userID := primitive.NewObjectID()
	file := models.NewFile(userID, "paper.pdf")
	file.UploadStatus = status
	require.NoError(t, fileRepo.Create(file))

	if status == models.UploadStatusSuccess {
		err := store.Upsert(context.Background(), file.ID.Hex(),
			[]vectorstore.Passage{{ID: "p1", Text: "The mitochondria is the powerhouse of the cell.", Page: 1}},
			[][]float32{{1, 0}})
		require.NoError(t, err)
	}

	svc := NewChatService(fileRepo, messageRepo, llmClient, fakeEmbedder{}, store)
	return svc, fileRepo, messageRepo, llmClient, file, userID.Hex()
}

func collect(t *testing.T, stream <-chan llm.StreamChunk) (string, error) {
	t.Helper()
	var text string
	var streamErr error
	for chunk := range stream {
		if chunk.Err != nil {
			streamErr = chunk.Err
			continue
		}
		text += chunk.Content
	}
	return text, streamErr
}

func waitForMessages(t *testing.T, repo *fakeMessageRepo, fileID primitive.ObjectID, want int) []models.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := repo.byFile(fileID); len(msgs) >= want {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	return repo.byFile(fileID)
}

func TestAskQuestion_StreamsAndPersistsBothTurns(t *testing.T) {
	svc, _, messageRepo, llmClient, file, userID := newChatFixture(t, models.UploadStatusSuccess)
	llmClient.chunks = []llm.StreamChunk{{Content: "It is "}, {Content: "the powerhouse."}}

	stream, statusCode, err := svc.AskQuestion(context.Background(), userID, &dtos.SendMessageRequest{
		FileID:  file.ID.Hex(),
		Message: "What is the mitochondria?",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(http.StatusOK), statusCode)

	text, streamErr := collect(t, stream)
	require.NoError(t, streamErr)
	assert.Equal(t, "It is the powerhouse.", text)

	messages := waitForMessages(t, messageRepo, file.ID, 2)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].IsUserMessage)
	assert.Equal(t, "What is the mitochondria?", messages[0].Text)
	assert.False(t, messages[1].IsUserMessage)
	assert.Equal(t, "It is the powerhouse.", messages[1].Text)

	// Retrieval ran against the indexed document.
	require.Len(t, llmClient.lastReq.Passages, 1)
	assert.Contains(t, llmClient.lastReq.Passages[0], "powerhouse")
}

func TestAskQuestion_UnindexedFileGetsEmptyContext(t *testing.T) {
	svc, _, messageRepo, llmClient, file, userID := newChatFixture(t, models.UploadStatusPending)
	llmClient.chunks = []llm.StreamChunk{{Content: "No idea."}}

	stream, statusCode, err := svc.AskQuestion(context.Background(), userID, &dtos.SendMessageRequest{
		FileID:  file.ID.Hex(),
		Message: "Anything?",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(http.StatusOK), statusCode)

	_, streamErr := collect(t, stream)
	require.NoError(t, streamErr)

	assert.Empty(t, llmClient.lastReq.Passages)

	// The user's turn is persisted even without retrieval.
	messages := waitForMessages(t, messageRepo, file.ID, 2)
	require.NotEmpty(t, messages)
	assert.True(t, messages[0].IsUserMessage)
}

func TestAskQuestion_EmptyUserIDRejected(t *testing.T) {
	svc, _, messageRepo, _, file, _ := newChatFixture(t, models.UploadStatusSuccess)

	_, statusCode, err := svc.AskQuestion(context.Background(), "", &dtos.SendMessageRequest{
		FileID:  file.ID.Hex(),
		Message: "hello",
	})
	require.Error(t, err)
	assert.Equal(t, uint(http.StatusUnauthorized), statusCode)
	assert.Empty(t, messageRepo.byFile(file.ID))
}

func TestAskQuestion_UnownedFileIsNotFound(t *testing.T) {
	svc, _, messageRepo, _, file, _ := newChatFixture(t, models.UploadStatusSuccess)
	stranger := primitive.NewObjectID().Hex()

	_, statusCode, err := svc.AskQuestion(context.Background(), stranger, &dtos.SendMessageRequest{
		FileID:  file.ID.Hex(),
		Message: "hello",
	})
	require.Error(t, err)
	assert.Equal(t, uint(http.StatusNotFound), statusCode)
	assert.Empty(t, messageRepo.byFile(file.ID))
}

func TestAskQuestion_MidStreamErrorDropsAssistantMessage(t *testing.T) {
	svc, _, messageRepo, llmClient, file, userID := newChatFixture(t, models.UploadStatusSuccess)
	llmClient.chunks = []llm.StreamChunk{
		{Content: "partial "},
		{Err: errors.New("upstream reset")},
	}

	stream, _, err := svc.AskQuestion(context.Background(), userID, &dtos.SendMessageRequest{
		FileID:  file.ID.Hex(),
		Message: "question",
	})
	require.NoError(t, err)

	text, streamErr := collect(t, stream)
	assert.Equal(t, "partial ", text)
	require.Error(t, streamErr)

	// Give the persist goroutine a moment; only the user turn may exist.
	time.Sleep(50 * time.Millisecond)
	messages := messageRepo.byFile(file.ID)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsUserMessage)
}

func TestAskQuestion_AbandonedStreamStillPersistsAnswer(t *testing.T) {
	svc, _, messageRepo, llmClient, file, userID := newChatFixture(t, models.UploadStatusSuccess)
	llmClient.chunks = []llm.StreamChunk{{Content: "part one "}, {Content: "part two "}, {Content: "part three"}}

	ctx, cancel := context.WithCancel(context.Background())
	stream, _, err := svc.AskQuestion(ctx, userID, &dtos.SendMessageRequest{
		FileID:  file.ID.Hex(),
		Message: "question",
	})
	require.NoError(t, err)

	// Read a single chunk, then walk away the way a disconnected
	// client does: cancel and never touch the channel again.
	first := <-stream
	assert.Equal(t, "part one ", first.Content)
	cancel()

	// The full answer settles regardless of the abandoned consumer.
	messages := waitForMessages(t, messageRepo, file.ID, 2)
	require.Len(t, messages, 2)
	assert.False(t, messages[1].IsUserMessage)
	assert.Equal(t, "part one part two part three", messages[1].Text)
}

func TestAskQuestion_HistoryIsChronologicalAndExcludesQuestion(t *testing.T) {
	svc, _, messageRepo, llmClient, file, userID := newChatFixture(t, models.UploadStatusSuccess)
	llmClient.chunks = []llm.StreamChunk{{Content: "ok"}}

	userIDPrimitive, _ := primitive.ObjectIDFromHex(userID)
	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"q1", "a1", "q2", "a2"} {
		m := models.NewMessage(userIDPrimitive, file.ID, i%2 == 0, text)
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, messageRepo.Create(m))
	}

	stream, _, err := svc.AskQuestion(context.Background(), userID, &dtos.SendMessageRequest{
		FileID:  file.ID.Hex(),
		Message: "q3",
	})
	require.NoError(t, err)
	collect(t, stream)

	history := llmClient.lastReq.History
	require.Len(t, history, 4)
	assert.Equal(t, "q1", history[0].Content)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "a2", history[3].Content)
	assert.Equal(t, "assistant", history[3].Role)
	for _, h := range history {
		assert.NotEqual(t, "q3", h.Content)
	}
}

func TestGetFileMessages_PaginationRoundTrip(t *testing.T) {
	svc, _, messageRepo, _, file, userID := newChatFixture(t, models.UploadStatusSuccess)

	userIDPrimitive, _ := primitive.ObjectIDFromHex(userID)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		m := models.NewMessage(userIDPrimitive, file.ID, i%2 == 0, "msg")
		m.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, messageRepo.Create(m))
	}

	var collected []dtos.MessageResponse
	cursor := ""
	pages := 0
	for {
		resp, statusCode, err := svc.GetFileMessages(userID, file.ID.Hex(), &dtos.MessageListRequest{Limit: 10, Cursor: cursor})
		require.NoError(t, err)
		assert.Equal(t, uint(http.StatusOK), statusCode)
		collected = append(collected, resp.Messages...)
		pages++
		if resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}

	assert.Equal(t, 3, pages)
	require.Len(t, collected, 25)

	// Newest first across the whole walk, no duplicates.
	seen := make(map[string]bool)
	for i := 1; i < len(collected); i++ {
		assert.GreaterOrEqual(t, collected[i-1].CreatedAt, collected[i].CreatedAt)
	}
	for _, m := range collected {
		assert.False(t, seen[m.ID], "duplicate message %s", m.ID)
		seen[m.ID] = true
	}
}

func TestGetFileMessages_LimitClamping(t *testing.T) {
	svc, _, messageRepo, _, file, userID := newChatFixture(t, models.UploadStatusSuccess)

	userIDPrimitive, _ := primitive.ObjectIDFromHex(userID)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 120; i++ {
		m := models.NewMessage(userIDPrimitive, file.ID, true, "msg")
		m.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, messageRepo.Create(m))
	}

	resp, _, err := svc.GetFileMessages(userID, file.ID.Hex(), &dtos.MessageListRequest{Limit: 0})
	require.NoError(t, err)
	assert.Len(t, resp.Messages, 10)

	resp, _, err = svc.GetFileMessages(userID, file.ID.Hex(), &dtos.MessageListRequest{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, resp.Messages, 100)
	require.NotNil(t, resp.NextCursor)
}

func TestGetFileMessages_InvalidCursor(t *testing.T) {
	svc, _, _, _, file, userID := newChatFixture(t, models.UploadStatusSuccess)

	_, statusCode, err := svc.GetFileMessages(userID, file.ID.Hex(), &dtos.MessageListRequest{Cursor: "not-an-id"})
	require.Error(t, err)
	assert.Equal(t, uint(http.StatusBadRequest), statusCode)
}

func TestGetFileMessages_UnownedFile(t *testing.T) {
	svc, _, _, _, file, _ := newChatFixture(t, models.UploadStatusSuccess)

	_, statusCode, err := svc.GetFileMessages(primitive.NewObjectID().Hex(), file.ID.Hex(), &dtos.MessageListRequest{})
	require.Error(t, err)
	assert.Equal(t, uint(http.StatusNotFound), statusCode)
}
