package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

func TestMemoryStore_GetOrCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	defaults := profile.DefaultTiers()[profile.TierDefault]

	p, err := store.GetOrCreate(ctx, "alice", defaults)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.ID)
	assert.Equal(t, defaults, p.Settings)
	assert.Equal(t, 1, store.Len())

	again, err := store.GetOrCreate(ctx, "alice", profile.DefaultTiers()[profile.TierPremium])
	require.NoError(t, err)
	assert.Equal(t, defaults, again.Settings, "existing profile keeps its settings")
	assert.Equal(t, 1, store.Len())

	_, err = store.GetOrCreate(ctx, "", defaults)
	assert.Error(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	defaults := profile.DefaultTiers()[profile.TierDefault]

	p, err := store.GetOrCreate(ctx, "alice", defaults)
	require.NoError(t, err)
	p.Params.Topic = "unsaved"
	p.UsageCount = 3

	fresh, err := store.GetOrCreate(ctx, "alice", defaults)
	require.NoError(t, err)
	assert.Empty(t, fresh.Params.Topic)
	assert.Equal(t, 0, fresh.UsageCount)

	require.NoError(t, store.Save(ctx, p))
	p.Params.Topic = "mutated after save"

	saved, err := store.GetOrCreate(ctx, "alice", defaults)
	require.NoError(t, err)
	assert.Equal(t, "unsaved", saved.Params.Topic)
	assert.Equal(t, 3, saved.UsageCount)
}

func TestMemoryStore_SaveValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, nil))
	assert.Error(t, store.Save(ctx, &profile.UserProfile{}))
	assert.NoError(t, store.Ping(ctx))
	assert.NoError(t, store.Close())
}

func TestMockStore_InjectedErrors(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	defaults := profile.DefaultTiers()[profile.TierDefault]
	boom := errors.New("boom")

	require.NoError(t, store.Ping(ctx))
	store.SetPingError(boom)
	assert.ErrorIs(t, store.Ping(ctx), boom)
	store.SetPingSuccess()
	assert.NoError(t, store.Ping(ctx))

	p, err := store.GetOrCreate(ctx, "alice", defaults)
	require.NoError(t, err)

	store.SetSaveError(boom)
	assert.ErrorIs(t, store.Save(ctx, p), boom)

	store.SetGetError(boom)
	_, err = store.GetOrCreate(ctx, "alice", defaults)
	assert.ErrorIs(t, err, boom)
	_, err = store.Get(ctx, "alice")
	assert.ErrorIs(t, err, boom)
}

func TestMemoryStore_Get(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Equal(t, 0, store.Len(), "Get must not create profiles")

	created, err := store.GetOrCreate(ctx, "alice", profile.DefaultTiers()[profile.TierDefault])
	require.NoError(t, err)
	created.Params.Topic = "a fox"
	require.NoError(t, store.Save(ctx, created))

	p, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a fox", p.Params.Topic)

	p.Params.Topic = "changed"
	again, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a fox", again.Params.Topic)
}
