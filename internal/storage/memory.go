package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

// MemoryStore keeps profiles in a process-local map. Entries are never
// evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*profile.UserProfile
}

// Ensure MemoryStore implements ProfileStore interface
var _ ProfileStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory profile store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*profile.UserProfile),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) GetOrCreate(ctx context.Context, id string, defaults profile.TierSettings) (*profile.UserProfile, error) {
	if id == "" {
		return nil, errors.New("profile id cannot be empty")
	}

	m.mu.RLock()
	p, ok := m.profiles[id]
	m.mu.RUnlock()
	if ok {
		return p.Clone(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another caller may have created it between the two locks
	if p, ok := m.profiles[id]; ok {
		return p.Clone(), nil
	}
	p = profile.New(id, defaults)
	m.profiles[id] = p
	return p.Clone(), nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*profile.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, p *profile.UserProfile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	if p.ID == "" {
		return errors.New("profile id cannot be empty")
	}
	p.UpdatedAt = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p.Clone()
	return nil
}

// Len returns the number of stored profiles.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}
