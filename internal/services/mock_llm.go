package services

import (
	"context"
	"sync"
)

// MockCompletionService is a mock implementation of CompletionService for testing
type MockCompletionService struct {
	CompleteFunc func(ctx context.Context, req CompletionRequest) (string, error)

	// Responses are returned in order when CompleteFunc is nil. The last one
	// repeats once the queue is drained.
	Responses []string

	// Track calls for testing
	CompleteCalls []CompletionRequest

	mu sync.Mutex // protects all fields above
}

var _ CompletionService = (*MockCompletionService)(nil)

// NewMockCompletionService creates a mock that answers with the given responses
func NewMockCompletionService(responses ...string) *MockCompletionService {
	return &MockCompletionService{
		Responses:     responses,
		CompleteCalls: make([]CompletionRequest, 0),
	}
}

func (m *MockCompletionService) Provider() string {
	return "mock"
}

// Complete records the request and answers from CompleteFunc or Responses.
// CompleteFunc runs without the mutex held so it may block.
func (m *MockCompletionService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, req)
	fn := m.CompleteFunc
	var next string
	if fn == nil {
		switch len(m.Responses) {
		case 0:
			next = "Mock response"
		case 1:
			next = m.Responses[0]
		default:
			next = m.Responses[0]
			m.Responses = m.Responses[1:]
		}
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return next, nil
}

// SetCompleteError sets up the mock to return an error on Complete
func (m *MockCompletionService) SetCompleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, req CompletionRequest) (string, error) {
		return "", err
	}
}

// Reset clears call tracking
func (m *MockCompletionService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = make([]CompletionRequest, 0)
}

// GetCalls returns a copy of the recorded requests
func (m *MockCompletionService) GetCalls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]CompletionRequest, len(m.CompleteCalls))
	copy(calls, m.CompleteCalls)
	return calls
}
