package chatclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendMessageStreamsBody(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/message", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "streamed answer")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token123")
	stream, err := client.SendMessage(context.Background(), "file1", "what?")
	require.NoError(t, err)
	defer stream.Close()

	answer, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "streamed answer", string(answer))
	assert.Equal(t, "Bearer token123", gotAuth)
	assert.JSONEq(t, `{"file_id":"file1","message":"what?"}`, gotBody)
}

func TestClient_SendMessageSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "file not found"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token123")
	_, err := client.SendMessage(context.Background(), "missing", "what?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestClient_GetFileMessagesDecodesPage(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/files/file1/messages", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"messages": []map[string]any{
					{"id": "m2", "file_id": "file1", "is_user_message": false, "text": "answer", "created_at": createdAt.Format(time.RFC3339Nano)},
					{"id": "m1", "file_id": "file1", "is_user_message": true, "text": "question", "created_at": createdAt.Add(-time.Minute).Format(time.RFC3339Nano)},
				},
				"next_cursor": "m0",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token123")
	page, err := client.GetFileMessages(context.Background(), "file1", 5, "abc")
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "m2", page.Messages[0].ID)
	assert.False(t, page.Messages[0].IsUserMessage)
	assert.True(t, page.Messages[1].IsUserMessage)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "m0", *page.NextCursor)
}

func TestClient_GetFileMessagesLastPageHasNoCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"messages": []map[string]any{}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token123")
	page, err := client.GetFileMessages(context.Background(), "file1", 0, "")
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.Nil(t, page.NextCursor)
}
