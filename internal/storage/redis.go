package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

const profileKeyPrefix = "profile:"

// DefaultProfileTTL bounds how long an idle profile survives in Redis.
const DefaultProfileTTL = 24 * time.Hour

// RedisStore implements ProfileStore on Redis. Profiles are JSON documents
// that expire after ttl without a write, so this is a shared cache for
// multiple API replicas rather than durable storage.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStore implements ProfileStore interface
var _ ProfileStore = (*RedisStore)(nil)

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if strings.Contains(redisURL, "://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// NewRedisStore creates a Redis-backed profile store
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &RedisStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Profile operations

func (r *RedisStore) GetOrCreate(ctx context.Context, id string, defaults profile.TierSettings) (*profile.UserProfile, error) {
	if id == "" {
		return nil, errors.New("profile id cannot be empty")
	}

	data, err := r.client.Get(ctx, profileKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Profile not found, creating", "user_id", id)
			p := profile.New(id, defaults)
			if err := r.Save(ctx, p); err != nil {
				return nil, err
			}
			return p, nil
		}
		r.logger.Error("Failed to load profile", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var p profile.UserProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		r.logger.Error("Failed to unmarshal profile", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*profile.UserProfile, error) {
	if id == "" {
		return nil, ErrProfileNotFound
	}

	data, err := r.client.Get(ctx, profileKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		r.logger.Error("Failed to load profile", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var p profile.UserProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		r.logger.Error("Failed to unmarshal profile", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) Save(ctx context.Context, p *profile.UserProfile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	if p.ID == "" {
		return errors.New("profile id cannot be empty")
	}
	p.UpdatedAt = time.Now()

	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal profile", "user_id", p.ID, "error", err)
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := r.client.Set(ctx, profileKeyPrefix+p.ID, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save profile", "user_id", p.ID, "error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
