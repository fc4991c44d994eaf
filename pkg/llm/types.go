package llm

import (
	"context"
)

// HistoryMessage is one prior conversation turn replayed to the model.
type HistoryMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// AnswerRequest carries everything the model needs to answer one question.
type AnswerRequest struct {
	Question string
	Passages []string         // retrieved document context, may be empty
	History  []HistoryMessage // chronological order, oldest first
}

// StreamChunk is a single text delta of a streamed answer. A chunk with a
// non-nil Err terminates the stream; the channel is closed right after it.
type StreamChunk struct {
	Content string
	Err     error
}

// Client defines the interface for LLM interactions. The returned channel is
// unbuffered: the producer blocks until the consumer pulls each chunk, and
// the channel is closed once the answer is complete.
type Client interface {
	StreamAnswer(ctx context.Context, req AnswerRequest) (<-chan StreamChunk, error)
	GetModelInfo() ModelInfo
}

// ModelInfo contains information about the LLM model
type ModelInfo struct {
	Name                string
	Provider            string
	MaxCompletionTokens int
}

// Config holds configuration for LLM clients
type Config struct {
	Provider            string
	Model               string
	APIKey              string
	MaxCompletionTokens int
	Temperature         float64
	SystemPrompt        string
}
