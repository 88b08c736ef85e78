package storage

import (
	"context"
	"sync"

	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

// MockStore wraps a MemoryStore with injectable failures for testing
type MockStore struct {
	*MemoryStore

	mu        sync.RWMutex
	pingError error
	saveError error
	getError  error
}

// Ensure MockStore implements ProfileStore interface
var _ ProfileStore = (*MockStore)(nil)

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: NewMemoryStore()}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStore) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetGetError configures the mock to fail on load with the given error
func (m *MockStore) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

// Ping mocks storage ping
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) GetOrCreate(ctx context.Context, id string, defaults profile.TierSettings) (*profile.UserProfile, error) {
	m.mu.RLock()
	err := m.getError
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.GetOrCreate(ctx, id, defaults)
}

func (m *MockStore) Get(ctx context.Context, id string) (*profile.UserProfile, error) {
	m.mu.RLock()
	err := m.getError
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.Get(ctx, id)
}

func (m *MockStore) Save(ctx context.Context, p *profile.UserProfile) error {
	m.mu.RLock()
	err := m.saveError
	m.mu.RUnlock()
	if err != nil {
		return err
	}
	return m.MemoryStore.Save(ctx, p)
}
