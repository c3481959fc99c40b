// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and provides defaults for server, NLU, cache and timeouts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Google APIs (Places, Place Photo, Custom Search)
	GoogleAPIKey   string
	SearchEngineID string // Custom Search engine id (CX)

	// NLU Configuration
	NLUProviders          []string // Fallback order, e.g. dialogflow,gemini,groq
	DialogflowClientToken string
	DialogflowBaseURL     string
	GeminiAPIKey          string
	GroqAPIKey            string
	GeminiIntentModels    []string // Empty = genai defaults
	GroqIntentModels      []string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Sentry
	SentryDSN              string
	SentryEnvironment      string
	SentryRelease          string
	SentrySampleRate       float64
	SentryTracesSampleRate float64

	// Better Stack
	BetterStackToken string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir  string        // Data directory for SQLite database
	CacheTTL time.Duration // TTL for cached menu links (default: 7 days)

	// Outbound API Configuration
	APITimeout    time.Duration
	APIMaxRetries int

	// Bot Configuration (embedded)
	Bot BotConfig
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		GoogleAPIKey:   getEnv(EnvGoogleAPIKey, ""),
		SearchEngineID: getEnv(EnvSearchEngineID, ""),

		NLUProviders:          getListEnv(EnvNLUProviders, []string{"dialogflow", "gemini", "groq"}),
		DialogflowClientToken: getEnv(EnvDialogflowClientToken, ""),
		DialogflowBaseURL:     getEnv(EnvDialogflowBaseURL, "https://api.api.ai/v1"),
		GeminiAPIKey:          getEnv(EnvGeminiAPIKey, ""),
		GroqAPIKey:            getEnv(EnvGroqAPIKey, ""),
		GeminiIntentModels:    getListEnv(EnvGeminiIntentModels, nil),
		GroqIntentModels:      getListEnv(EnvGroqIntentModels, nil),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:              getEnv(EnvSentryDSN, ""),
		SentryEnvironment:      getEnv(EnvSentryEnvironment, "production"),
		SentryRelease:          getEnv(EnvSentryRelease, ""),
		SentrySampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
		SentryTracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0.0),

		BetterStackToken: getEnv(EnvBetterStackToken, ""),

		Port:            getEnv(EnvPort, "5000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:  getEnv(EnvDataDir, "./data"),
		CacheTTL: getDurationEnv(EnvCacheTTL, 168*time.Hour), // TTL: 7 days

		APITimeout:    getDurationEnv(EnvAPITimeout, APIRequest),
		APIMaxRetries: getIntEnv(EnvAPIMaxRetries, 2),

		Bot: BotConfig{
			WebhookTimeout:      getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
			MaxMessagesPerReply: LINEMaxMessagesPerReply,
			MaxEventsPerWebhook: 100,
			MaxCarouselColumns:  LINEMaxCarouselColumns,
			MinRating:           3.9,
			MenuLookupWorkers:   5,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelAccessToken))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelSecret))
	}
	if c.GoogleAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvGoogleAPIKey))
	}
	if c.SearchEngineID == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvSearchEngineID))
	}
	if !c.HasNLUProvider() {
		errs = append(errs, fmt.Errorf("at least one NLU provider is required (%s, %s or %s)",
			EnvDialogflowClientToken, EnvGeminiAPIKey, EnvGroqAPIKey))
	}
	for _, p := range c.NLUProviders {
		switch p {
		case "dialogflow", "gemini", "groq":
		default:
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvNLUProviders, p))
		}
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, fmt.Errorf("API_TIMEOUT must be positive, got %v", c.APITimeout))
	}
	if c.APIMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("API_MAX_RETRIES cannot be negative, got %d", c.APIMaxRetries))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated environment variable, dropping empty items
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// HasNLUProvider reports whether at least one classifier has credentials.
func (c *Config) HasNLUProvider() bool {
	return c.DialogflowClientToken != "" || c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// SentryEnabled reports whether a Sentry DSN is configured.
func (c *Config) SentryEnabled() bool {
	return c.SentryDSN != ""
}

// BetterStackEnabled reports whether log shipping to Better Stack is configured.
func (c *Config) BetterStackEnabled() bool {
	return c.BetterStackToken != ""
}

// MetricsAuthEnabled reports whether /metrics requires Basic Auth.
func (c *Config) MetricsAuthEnabled() bool {
	return c.MetricsPassword != ""
}
