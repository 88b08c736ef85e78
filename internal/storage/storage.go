package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

// ErrProfileNotFound is returned by Get for an id that was never saved.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists user profiles for the lifetime of the process (or the
// configured TTL for shared backends). Implementations hand out copies, so a
// caller must Save to publish changes.
type ProfileStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GetOrCreate loads the profile for id, creating it with the given tier
	// settings on first access.
	GetOrCreate(ctx context.Context, id string, defaults profile.TierSettings) (*profile.UserProfile, error)

	// Get loads an existing profile without creating one.
	Get(ctx context.Context, id string) (*profile.UserProfile, error)

	// Save stores the profile under its ID.
	Save(ctx context.Context, p *profile.UserProfile) error
}
