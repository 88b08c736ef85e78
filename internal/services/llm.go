package services

import (
	"context"
	"errors"
)

// DefaultTemperature is used when a request does not set one.
const DefaultTemperature = 0.7

// ErrEmptyCompletion is returned when a provider answers without any text.
var ErrEmptyCompletion = errors.New("completion returned no text")

// CompletionRequest is a single-prompt text completion.
type CompletionRequest struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// CompletionService defines the interface for text-completion providers
type CompletionService interface {
	// Complete sends the prompt and returns the generated text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Provider names the backend, for logs and health output.
	Provider() string
}

func temperatureOrDefault(t float64) float64 {
	if t <= 0 {
		return DefaultTemperature
	}
	return t
}
