package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Message is one settled entry of a file's message log as the server
// reports it.
type Message struct {
	ID            string    `json:"id"`
	FileID        string    `json:"file_id"`
	IsUserMessage bool      `json:"is_user_message"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}

// MessagePage is one keyset page, newest first. NextCursor is nil on
// the last page.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor *string   `json:"next_cursor"`
}

// Client is a thin HTTP client for the chat API. Session layers the
// optimistic cache on top of it.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL string, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		// No overall timeout: answer streams are open-ended. Callers
		// bound individual requests through their context.
		httpClient: &http.Client{},
	}
}

// SendMessage posts a question and returns the raw answer stream. The
// caller owns the reader and must close it.
func (c *Client) SendMessage(ctx context.Context, fileID string, message string) (io.ReadCloser, error) {
	body, err := json.Marshal(map[string]string{
		"file_id": fileID,
		"message": message,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/message", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp.Body, nil
}

// GetFileMessages fetches one page of the file's message log. A zero
// limit takes the server default; an empty cursor starts from the
// newest message.
func (c *Client) GetFileMessages(ctx context.Context, fileID string, limit int, cursor string) (*MessagePage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	endpoint := c.baseURL + "/api/files/" + url.PathEscape(fileID) + "/messages"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var envelope struct {
		Success bool        `json:"success"`
		Data    MessagePage `json:"data"`
		Error   *string     `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode message page: %w", err)
	}
	if !envelope.Success {
		if envelope.Error != nil {
			return nil, fmt.Errorf("message page request failed: %s", *envelope.Error)
		}
		return nil, fmt.Errorf("message page request failed")
	}
	return &envelope.Data, nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope struct {
		Error *string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != nil {
		return fmt.Errorf("%s: %s", resp.Status, *envelope.Error)
	}
	return fmt.Errorf("request failed: %s", resp.Status)
}
