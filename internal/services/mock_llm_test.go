package services

import (
	"context"
	"errors"
	"testing"
)

func TestMockCompletionService(t *testing.T) {
	mockService := NewMockCompletionService("first", "second")

	req := CompletionRequest{Prompt: "Hello", Model: "test-model", MaxTokens: 10}
	for _, want := range []string{"first", "second", "second"} {
		got, err := mockService.Complete(context.Background(), req)
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected '%s', got '%s'", want, got)
		}
	}

	calls := mockService.GetCalls()
	if len(calls) != 3 {
		t.Fatalf("Expected 3 Complete calls, got %d", len(calls))
	}
	if calls[0].Model != "test-model" || calls[0].MaxTokens != 10 {
		t.Errorf("Unexpected recorded request: %+v", calls[0])
	}

	mockService.Reset()
	if len(mockService.GetCalls()) != 0 {
		t.Errorf("Expected calls to be cleared after Reset")
	}
}

func TestMockCompletionService_Default(t *testing.T) {
	got, err := NewMockCompletionService().Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "Mock response" {
		t.Errorf("Expected 'Mock response', got '%s'", got)
	}
}

func TestMockCompletionService_ErrorHandling(t *testing.T) {
	mockService := NewMockCompletionService()
	expectedErr := errors.New("generation failed")
	mockService.SetCompleteError(expectedErr)

	_, err := mockService.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected %v, got %v", expectedErr, err)
	}
	if len(mockService.GetCalls()) != 1 {
		t.Errorf("Expected failed call to be recorded")
	}
}

func TestMockCompletionService_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockCompletionService("x").Complete(ctx, CompletionRequest{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
