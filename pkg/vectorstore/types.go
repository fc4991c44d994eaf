package vectorstore

import "context"

// Passage is one indexed slice of a document.
type Passage struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Page  int     `json:"page"`
	Score float64 `json:"score,omitempty"`
}

// Store persists embedded document passages partitioned by namespace (one
// namespace per file) and supports similarity search within a namespace.
// Querying a namespace that has nothing indexed returns zero results, never
// an error.
type Store interface {
	Upsert(ctx context.Context, namespace string, passages []Passage, vectors [][]float32) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Passage, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}
