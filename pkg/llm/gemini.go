package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client              *genai.Client
	model               string
	maxCompletionTokens int
	temperature         float64
	systemPrompt        string
}

func NewGeminiClient(config Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	// Create the Gemini SDK client using the provided API key.
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiClient{
		client:              client,
		model:               config.Model,
		maxCompletionTokens: config.MaxCompletionTokens,
		temperature:         config.Temperature,
		systemPrompt:        config.SystemPrompt,
	}, nil
}

func (c *GeminiClient) StreamAnswer(ctx context.Context, req AnswerRequest) (<-chan StreamChunk, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Convert prior turns into Gemini chat history.
	history := make([]*genai.Content, 0, len(req.History))
	for _, msg := range req.History {
		if msg.Content == "" {
			continue
		}
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	maxTokens := int32(c.maxCompletionTokens)
	model := c.client.GenerativeModel(c.model)
	model.MaxOutputTokens = &maxTokens
	model.SetTemperature(float32(c.temperature))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(c.systemPrompt)},
	}
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockNone,
		},
	}

	session := model.StartChat()
	session.History = history

	iter := session.SendMessageStream(ctx, genai.Text(buildQuestionPrompt(req)))

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				log.Printf("Gemini stream error: %v", err)
				select {
				case out <- StreamChunk{Err: fmt.Errorf("gemini stream error: %v", err)}:
				case <-ctx.Done():
				}
				return
			}
			for _, candidate := range resp.Candidates {
				if candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					text, ok := part.(genai.Text)
					if !ok || text == "" {
						continue
					}
					select {
					case out <- StreamChunk{Content: string(text)}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}

// GetModelInfo returns information about the Gemini model.
func (c *GeminiClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:                c.model,
		Provider:            "gemini",
		MaxCompletionTokens: c.maxCompletionTokens,
	}
}
