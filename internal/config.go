package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL
	BaseURL string

	// AI Provider Configuration
	AIProvider       string // "gemini", "openai", "anthropic" or "mock"
	GeminiAPIKey     string
	GeminiModel      string
	OpenAIAPIKey     string
	OpenAIModel      string
	AnthropicAPIKey  string
	AnthropicModel   string
	AIRequestTimeout time.Duration // Bounds each model call
	AITurnTimeout    time.Duration // Bounds a whole chat turn

	// Session Configuration
	SessionStore string // "memory" or "redis"
	RedisURL     string
	SessionTTL   time.Duration

	// Simulated flows
	VideoSearchDelay  time.Duration
	NotifyDelay       time.Duration
	EmergencyContacts []string

	// Inbound rate limiting: chat submissions per minute per IP
	RateLimitChat int

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// AI provider defaults
		AIProvider:       strings.ToLower(getEnv("AI_PROVIDER", "mock")),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
		AITurnTimeout:    getEnvDuration("AI_TURN_TIMEOUT", 2*time.Minute),

		// Sessions default to process memory
		SessionStore: strings.ToLower(getEnv("SESSION_STORE", "memory")),
		RedisURL:     getEnv("REDIS_URL", ""),
		SessionTTL:   getEnvDuration("SESSION_TTL", 24*time.Hour),

		// Simulation delays
		VideoSearchDelay: getEnvDuration("VIDEO_SEARCH_DELAY", 1500*time.Millisecond),
		NotifyDelay:      getEnvDuration("NOTIFY_DELAY", 2*time.Second),

		RateLimitChat: getEnvInt("RATE_LIMIT_CHAT", 10),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Parse emergency contacts from comma-separated environment variable
	contactsStr := getEnv("EMERGENCY_CONTACTS", "")
	if contactsStr != "" {
		for _, contact := range strings.Split(contactsStr, ",") {
			trimmed := strings.TrimSpace(contact)
			if trimmed != "" {
				cfg.EmergencyContacts = append(cfg.EmergencyContacts, trimmed)
			}
		}
	}

	// Validate AI provider configuration
	switch cfg.AIProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is 'gemini'")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is 'openai'")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is 'anthropic'")
		}
	case "mock":
	default:
		return nil, fmt.Errorf("AI_PROVIDER must be one of 'gemini', 'openai', 'anthropic' or 'mock', got: %s", cfg.AIProvider)
	}

	if cfg.AIRequestTimeout <= 0 {
		return nil, fmt.Errorf("AI_REQUEST_TIMEOUT must be positive, got: %s", cfg.AIRequestTimeout)
	}
	if cfg.AITurnTimeout < cfg.AIRequestTimeout {
		return nil, fmt.Errorf("AI_TURN_TIMEOUT (%s) must not be shorter than AI_REQUEST_TIMEOUT (%s)", cfg.AITurnTimeout, cfg.AIRequestTimeout)
	}

	// Validate session configuration
	switch cfg.SessionStore {
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when SESSION_STORE is 'redis'")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("SESSION_STORE must be either 'memory' or 'redis', got: %s", cfg.SessionStore)
	}

	if cfg.RateLimitChat < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_CHAT must be at least 1, got: %d", cfg.RateLimitChat)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
