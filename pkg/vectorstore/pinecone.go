package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PineconeStore is a minimal REST client to a Pinecone serverless index.
// One namespace per document keeps retrieval scoped to a single file.
type PineconeStore struct {
	indexHost string
	apiKey    string
	client    *http.Client
}

type PineconeConfig struct {
	IndexHost string
	APIKey    string
	Timeout   time.Duration
}

func NewPineconeStore(cfg PineconeConfig) *PineconeStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &PineconeStore{
		indexHost: cfg.IndexHost,
		apiKey:    cfg.APIKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *PineconeStore) Upsert(ctx context.Context, namespace string, passages []Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("passages and vectors length mismatch")
	}
	points := make([]pineconeVector, len(passages))
	for i := range passages {
		points[i] = pineconeVector{
			ID:     passages[i].ID,
			Values: vectors[i],
			Metadata: map[string]any{
				"text": passages[i].Text,
				"page": passages[i].Page,
			},
		}
	}
	body := map[string]any{
		"vectors":   points,
		"namespace": namespace,
	}
	return s.postJSON(ctx, "/vectors/upsert", body, nil)
}

func (s *PineconeStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Passage, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"namespace":       namespace,
		"includeMetadata": true,
	}

	var out struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.postJSON(ctx, "/query", body, &out); err != nil {
		return nil, err
	}

	results := make([]Passage, 0, len(out.Matches))
	for _, match := range out.Matches {
		p := Passage{ID: match.ID, Score: match.Score}
		if text, ok := match.Metadata["text"].(string); ok {
			p.Text = text
		}
		if page, ok := match.Metadata["page"].(float64); ok {
			p.Page = int(page)
		}
		results = append(results, p)
	}
	return results, nil
}

func (s *PineconeStore) DeleteNamespace(ctx context.Context, namespace string) error {
	body := map[string]any{
		"deleteAll": true,
		"namespace": namespace,
	}
	return s.postJSON(ctx, "/vectors/delete", body, nil)
}

func (s *PineconeStore) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.indexHost+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinecone %s failed: %s: %s", path, resp.Status, string(payload))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
