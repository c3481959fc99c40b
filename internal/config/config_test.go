package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvLineChannelAccessToken, "test_token")
	t.Setenv(EnvLineChannelSecret, "test_secret")
	t.Setenv(EnvGoogleAPIKey, "test_google_key")
	t.Setenv(EnvSearchEngineID, "test_cx")
	t.Setenv(EnvDialogflowClientToken, "test_dialogflow")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LineChannelToken != "test_token" {
		t.Errorf("Expected token 'test_token', got '%s'", cfg.LineChannelToken)
	}
	if cfg.LineChannelSecret != "test_secret" {
		t.Errorf("Expected secret 'test_secret', got '%s'", cfg.LineChannelSecret)
	}
	if cfg.SearchEngineID != "test_cx" {
		t.Errorf("Expected CX 'test_cx', got '%s'", cfg.SearchEngineID)
	}

	// Defaults
	if cfg.Port != "5000" {
		t.Errorf("Expected default port '5000', got '%s'", cfg.Port)
	}
	if cfg.APIMaxRetries != 2 {
		t.Errorf("Expected default max retries 2, got %d", cfg.APIMaxRetries)
	}
	if cfg.CacheTTL != 168*time.Hour {
		t.Errorf("Expected default cache TTL 168h, got %v", cfg.CacheTTL)
	}
	if cfg.Bot.MinRating != 3.9 {
		t.Errorf("Expected min rating 3.9, got %v", cfg.Bot.MinRating)
	}
	if got := strings.Join(cfg.NLUProviders, ","); got != "dialogflow,gemini,groq" {
		t.Errorf("Expected default NLU providers, got %q", got)
	}
	if cfg.SentryEnabled() || cfg.BetterStackEnabled() || cfg.MetricsAuthEnabled() {
		t.Error("Expected optional features disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvCacheTTL, "1h")
	t.Setenv(EnvNLUProviders, " groq , ,gemini ")
	t.Setenv(EnvAPIMaxRetries, "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("Expected cache TTL 1h, got %v", cfg.CacheTTL)
	}
	if got := strings.Join(cfg.NLUProviders, ","); got != "groq,gemini" {
		t.Errorf("Expected trimmed providers 'groq,gemini', got %q", got)
	}
	if cfg.APIMaxRetries != 2 {
		t.Errorf("Expected invalid int to fall back to 2, got %d", cfg.APIMaxRetries)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LineChannelToken:      "token",
			LineChannelSecret:     "secret",
			GoogleAPIKey:          "key",
			SearchEngineID:        "cx",
			NLUProviders:          []string{"dialogflow"},
			DialogflowClientToken: "df",
			Port:                  "5000",
			DataDir:               "./data",
			CacheTTL:              time.Hour,
			APITimeout:            time.Second,
			APIMaxRetries:         1,
			Bot: BotConfig{
				WebhookTimeout:      time.Second,
				MaxMessagesPerReply: 5,
				MaxEventsPerWebhook: 100,
				MaxCarouselColumns:  10,
				MinRating:           3.9,
				MenuLookupWorkers:   5,
			},
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing token", func(c *Config) { c.LineChannelToken = "" }, EnvLineChannelAccessToken},
		{"missing secret", func(c *Config) { c.LineChannelSecret = "" }, EnvLineChannelSecret},
		{"missing google key", func(c *Config) { c.GoogleAPIKey = "" }, EnvGoogleAPIKey},
		{"missing cx", func(c *Config) { c.SearchEngineID = "" }, EnvSearchEngineID},
		{"no nlu provider", func(c *Config) { c.DialogflowClientToken = "" }, "NLU provider"},
		{"unknown provider", func(c *Config) { c.NLUProviders = []string{"watson"} }, "watson"},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }, "CACHE_TTL"},
		{"negative retries", func(c *Config) { c.APIMaxRetries = -1 }, "API_MAX_RETRIES"},
		{"too many columns", func(c *Config) { c.Bot.MaxCarouselColumns = 11 }, "carousel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.errContains)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.errContains)
			}
		})
	}
}

func TestSQLitePath(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/foo"}
	if got := cfg.SQLitePath(); got != "/tmp/foo/cache.db" {
		t.Errorf("SQLitePath() = %q", got)
	}
}
