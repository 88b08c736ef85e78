package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderVenice    = "venice"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Port        string     `env:"PORT" envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level `env:"-"`
	LogLevelRaw string     `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string     `env:"LOG_FILE"`
	BotName     string     `env:"BOT_NAME" envDefault:"fairytale_bot"`

	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMBaseURL      string `env:"LLM_BASE_URL"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	VeniceAPIKey    string `env:"VENICE_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	TokenEncoding   string `env:"TOKEN_ENCODING" envDefault:"cl100k_base"`

	StoreBackend string        `env:"STORE_BACKEND" envDefault:"memory"`
	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	ProfileTTL   time.Duration `env:"PROFILE_TTL" envDefault:"24h"`

	ResourcesDir string `env:"RESOURCES_DIR"`
	TiersFile    string `env:"TIERS_FILE"`

	CompletionTimeout  time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"90s"`
	StructureMaxTokens int           `env:"STRUCTURE_MAX_TOKENS" envDefault:"1000"`
	ContextWindow      int           `env:"CONTEXT_WINDOW" envDefault:"16385"`
	ContentFilter      bool          `env:"CONTENT_FILTER" envDefault:"true"`
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks provider, backend and limits.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when using the openai provider")
		}
	case ProviderVenice:
		if c.VeniceAPIKey == "" {
			return errors.New("VENICE_API_KEY is required when using the venice provider")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required when using the anthropic provider")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when using the gemini provider")
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("invalid LLM provider %q (supported: openai, venice, ollama, anthropic, gemini)", c.LLMProvider)
	}

	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid store backend %q (supported: memory, redis)", c.StoreBackend)
	}

	if c.CompletionTimeout <= 0 {
		return errors.New("COMPLETION_TIMEOUT must be positive")
	}
	if c.StructureMaxTokens <= 0 {
		return errors.New("STRUCTURE_MAX_TOKENS must be positive")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
