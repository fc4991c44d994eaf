package llm

import (
	"fmt"
	"strings"
	"sync"
)

type Manager struct {
	clients map[string]Client
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]Client),
	}
}

func (m *Manager) RegisterClient(name string, config Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var client Client
	var err error

	switch config.Provider {
	case "openai":
		client, err = NewOpenAIClient(config)
	case "gemini":
		client, err = NewGeminiClient(config)
	default:
		return fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}

	if err != nil {
		return fmt.Errorf("failed to create LLM client: %v", err)
	}

	m.clients[name] = client
	return nil
}

func (m *Manager) GetClient(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}

	return client, nil
}

func (m *Manager) RemoveClient(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, name)
}

// buildQuestionPrompt interpolates the retrieved passages into the user turn
// so providers without a separate context slot see the same grounding.
func buildQuestionPrompt(req AnswerRequest) string {
	if len(req.Passages) == 0 {
		return req.Question
	}

	var b strings.Builder
	b.WriteString("----------------\n")
	b.WriteString("CONTEXT:\n")
	for _, passage := range req.Passages {
		b.WriteString(passage)
		b.WriteString("\n\n")
	}
	b.WriteString("----------------\n")
	b.WriteString("USER INPUT: ")
	b.WriteString(req.Question)
	return b.String()
}

func mapRole(role string) string {
	switch strings.ToLower(role) {
	case "assistant":
		return "assistant"
	default:
		return "user"
	}
}
