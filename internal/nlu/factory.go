package nlu

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/whattoeat-linebot/internal/apiclient"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
)

// Config selects and configures classifiers.
type Config struct {
	Providers []Provider // Chain order; unknown or unconfigured entries are skipped

	DialogflowToken   string
	DialogflowBaseURL string

	GeminiAPIKey string
	GeminiModels []string // Empty = DefaultGeminiIntentModels

	GroqAPIKey  string
	GroqModels  []string // Empty = DefaultGroqIntentModels
	GroqBaseURL string

	Timeout time.Duration // Per Dialogflow request
	Retry   RetryConfig
}

// NewClassifier builds the fallback chain from the configured providers.
// Each LLM model becomes its own link so a failing model falls back to the
// next one before switching provider.
func NewClassifier(ctx context.Context, cfg Config, m *metrics.Metrics) (*FallbackClassifier, error) {
	var chain []Classifier

	for _, p := range cfg.Providers {
		switch p {
		case ProviderDialogflow:
			if cfg.DialogflowToken == "" {
				continue
			}
			api := apiclient.NewClient(apiclient.Config{
				Service: string(ProviderDialogflow),
				Timeout: cfg.Timeout,
			}, m)
			c, err := NewDialogflowClassifier(api, cfg.DialogflowToken, cfg.DialogflowBaseURL)
			if err != nil {
				return nil, err
			}
			chain = append(chain, c)

		case ProviderGemini:
			if cfg.GeminiAPIKey == "" {
				continue
			}
			for _, model := range modelsOrDefault(cfg.GeminiModels, DefaultGeminiIntentModels) {
				c, err := NewGeminiClassifier(ctx, cfg.GeminiAPIKey, model)
				if err != nil {
					slog.WarnContext(ctx, "failed to create gemini classifier", "model", model, "error", err)
					continue
				}
				slog.DebugContext(ctx, "intent classifier added", "provider", c.Provider(), "model", c.Model())
				chain = append(chain, c)
			}

		case ProviderGroq:
			if cfg.GroqAPIKey == "" {
				continue
			}
			for _, model := range modelsOrDefault(cfg.GroqModels, DefaultGroqIntentModels) {
				c, err := NewGroqClassifier(cfg.GroqAPIKey, model, cfg.GroqBaseURL)
				if err != nil {
					slog.WarnContext(ctx, "failed to create groq classifier", "model", model, "error", err)
					continue
				}
				slog.DebugContext(ctx, "intent classifier added", "provider", c.Provider(), "model", c.Model())
				chain = append(chain, c)
			}

		default:
			slog.WarnContext(ctx, "ignoring unknown NLU provider", "provider", p)
		}
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("nlu: no classifier available: %w", domerrors.ErrNotConfigured)
	}

	slog.InfoContext(ctx, "intent classifier configured",
		"primary", chain[0].Provider(),
		"chain_size", len(chain))

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}
	return NewFallbackClassifier(retry, m, chain...), nil
}

func modelsOrDefault(models, defaults []string) []string {
	if len(models) == 0 {
		return defaults
	}
	return models
}
