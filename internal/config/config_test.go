package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.ProfileTTL)
	assert.Equal(t, 90*time.Second, cfg.CompletionTimeout)
	assert.Equal(t, 1000, cfg.StructureMaxTokens)
	assert.True(t, cfg.ContentFilter)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", " Anthropic ")
	t.Setenv("ANTHROPIC_API_KEY", "key")
	t.Setenv("STORE_BACKEND", "REDIS")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("COMPLETION_TIMEOUT", "15s")
	t.Setenv("PROFILE_TTL", "1h")
	t.Setenv("CONTENT_FILTER", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.CompletionTimeout)
	assert.Equal(t, time.Hour, cfg.ProfileTTL)
	assert.False(t, cfg.ContentFilter)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing openai key", map[string]string{"LLM_PROVIDER": "openai"}},
		{"missing gemini key", map[string]string{"LLM_PROVIDER": "gemini"}},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "eliza"}},
		{"unknown backend", map[string]string{"LLM_PROVIDER": "ollama", "STORE_BACKEND": "disk"}},
		{"bad duration", map[string]string{"LLM_PROVIDER": "ollama", "COMPLETION_TIMEOUT": "soon"}},
		{"zero structure budget", map[string]string{"LLM_PROVIDER": "ollama", "STRUCTURE_MAX_TOKENS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			t.Setenv("GEMINI_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}
