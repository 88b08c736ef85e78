package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/fairytale-engine/internal/config"
	"github.com/jwebster45206/fairytale-engine/internal/services"
	"github.com/jwebster45206/fairytale-engine/internal/storage"
)

func newCompletionService(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.CompletionService, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return services.NewChatGPTService(cfg.LLMProvider, cfg.OpenAIAPIKey, cfg.LLMBaseURL, cfg.CompletionTimeout), nil
	case config.ProviderVenice:
		return services.NewChatGPTService(cfg.LLMProvider, cfg.VeniceAPIKey, baseURLOr(cfg.LLMBaseURL, services.VeniceBaseURL), cfg.CompletionTimeout), nil
	case config.ProviderOllama:
		// Ollama ignores the key but the client requires one
		return services.NewChatGPTService(cfg.LLMProvider, "ollama", baseURLOr(cfg.LLMBaseURL, services.OllamaBaseURL), cfg.CompletionTimeout), nil
	case config.ProviderAnthropic:
		return services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.LLMBaseURL, cfg.CompletionTimeout, log), nil
	case config.ProviderGemini:
		return services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.LLMBaseURL)
	}
	return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
}

func baseURLOr(url, fallback string) string {
	if url != "" {
		return url
	}
	return fallback
}

// newStore returns the profile store and a matching per-user locker.
func newStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.ProfileStore, storage.Locker, error) {
	if cfg.StoreBackend != config.BackendRedis {
		log.Info("Using in-memory profile store")
		return storage.NewMemoryStore(), storage.NewMemoryLocker(), nil
	}

	client, err := storage.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store := storage.NewRedisStore(client, cfg.ProfileTTL, log)

	connectCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := store.WaitForConnection(connectCtx, 10, 2*time.Second); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis profile store connected", "ttl", cfg.ProfileTTL)

	// the lock must outlive the two completion calls it can cover
	lockTTL := 2*cfg.CompletionTimeout + 30*time.Second
	return store, storage.NewRedisLocker(client, lockTTL, log), nil
}
