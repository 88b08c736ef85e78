package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	VeniceBaseURL = "https://api.venice.ai/api/v1"
	OllamaBaseURL = "http://localhost:11434/v1"
)

// ChatGPTService implements CompletionService on the OpenAI chat completions
// API. Venice and Ollama expose the same API, so they reuse this client with a
// different base URL.
type ChatGPTService struct {
	client   *openai.Client
	provider string
}

// Ensure ChatGPTService implements CompletionService interface
var _ CompletionService = (*ChatGPTService)(nil)

// NewChatGPTService creates an OpenAI-compatible completion client. An empty
// baseURL targets api.openai.com.
func NewChatGPTService(provider, apiKey, baseURL string, timeout time.Duration) *ChatGPTService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &ChatGPTService{
		client:   openai.NewClientWithConfig(cfg),
		provider: provider,
	}
}

func (c *ChatGPTService) Provider() string {
	return c.provider
}

// Complete generates text using the chat completions endpoint
func (c *ChatGPTService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if req.Prompt == "" {
		return "", errors.New("no prompt provided")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(temperatureOrDefault(req.Temperature)),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("API request failed with status %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from API: %w", ErrEmptyCompletion)
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
