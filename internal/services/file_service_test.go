package services

import (
	"askpdf-ai/internal/apis/dtos"
	"askpdf-ai/internal/models"
	"askpdf-ai/pkg/chunker"
	"askpdf-ai/pkg/vectorstore"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("embedding service down")
}

func waitForStatus(t *testing.T, repo *fakeFileRepo, fileID string, want string) *models.File {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		file, _ := repo.FindByID(fileID)
		if file != nil && file.UploadStatus == want {
			return file
		}
		time.Sleep(5 * time.Millisecond)
	}
	file, _ := repo.FindByID(fileID)
	return file
}

func TestUpload_IndexesAndMarksSuccess(t *testing.T) {
	fileRepo := newFakeFileRepo()
	store := vectorstore.NewMemoryStore()
	svc := NewFileService(fileRepo, &fakeMessageRepo{}, chunker.NewSentenceChunker(5, 1), fakeEmbedder{}, store)

	userID := primitive.NewObjectID()
	resp, statusCode, err := svc.Upload(userID.Hex(), &dtos.UploadFileRequest{
		Name:  "paper.pdf",
		Pages: []string{"First page text. More text.", "Second page text."},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(http.StatusCreated), statusCode)
	assert.Equal(t, models.UploadStatusPending, resp.UploadStatus)

	file := waitForStatus(t, fileRepo, resp.ID, models.UploadStatusSuccess)
	require.NotNil(t, file)
	assert.Equal(t, models.UploadStatusSuccess, file.UploadStatus)
	assert.Equal(t, 2, file.PageCount)

	// The document's namespace answers queries once indexed.
	results, err := store.Query(context.Background(), resp.ID, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestUpload_EmbeddingFailureMarksFailed(t *testing.T) {
	fileRepo := newFakeFileRepo()
	svc := NewFileService(fileRepo, &fakeMessageRepo{}, chunker.NewSentenceChunker(5, 1), failingEmbedder{}, vectorstore.NewMemoryStore())

	resp, _, err := svc.Upload(primitive.NewObjectID().Hex(), &dtos.UploadFileRequest{
		Name:  "paper.pdf",
		Pages: []string{"Some text."},
	})
	require.NoError(t, err)

	file := waitForStatus(t, fileRepo, resp.ID, models.UploadStatusFailed)
	require.NotNil(t, file)
	assert.Equal(t, models.UploadStatusFailed, file.UploadStatus)
}

func TestDelete_CascadesMessagesAndVectors(t *testing.T) {
	fileRepo := newFakeFileRepo()
	messageRepo := &fakeMessageRepo{}
	store := vectorstore.NewMemoryStore()
	svc := NewFileService(fileRepo, messageRepo, chunker.NewSentenceChunker(5, 1), fakeEmbedder{}, store)

	userID := primitive.NewObjectID()
	file := models.NewFile(userID, "paper.pdf")
	require.NoError(t, fileRepo.Create(file))
	require.NoError(t, messageRepo.Create(models.NewMessage(userID, file.ID, true, "hello")))
	require.NoError(t, store.Upsert(context.Background(), file.ID.Hex(),
		[]vectorstore.Passage{{ID: "p1", Text: "text"}}, [][]float32{{1}}))

	statusCode, err := svc.Delete(userID.Hex(), file.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, uint(http.StatusOK), statusCode)

	gone, _ := fileRepo.FindByID(file.ID.Hex())
	assert.Nil(t, gone)
	assert.Empty(t, messageRepo.byFile(file.ID))

	results, err := store.Query(context.Background(), file.ID.Hex(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDelete_UnownedFileIsNotFound(t *testing.T) {
	fileRepo := newFakeFileRepo()
	svc := NewFileService(fileRepo, &fakeMessageRepo{}, chunker.NewSentenceChunker(5, 1), fakeEmbedder{}, vectorstore.NewMemoryStore())

	file := models.NewFile(primitive.NewObjectID(), "paper.pdf")
	require.NoError(t, fileRepo.Create(file))

	statusCode, err := svc.Delete(primitive.NewObjectID().Hex(), file.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, uint(http.StatusNotFound), statusCode)
}
