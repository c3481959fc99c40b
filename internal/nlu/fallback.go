package nlu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/whattoeat-linebot/internal/apiclient"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
)

// FallbackClassifier tries classifiers in order. Each one is retried with
// backoff on transient errors before the chain moves on.
type FallbackClassifier struct {
	chain   []Classifier
	retry   RetryConfig
	metrics *metrics.Metrics
}

// NewFallbackClassifier creates a chain. m may be nil.
func NewFallbackClassifier(cfg RetryConfig, m *metrics.Metrics, classifiers ...Classifier) *FallbackClassifier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &FallbackClassifier{chain: classifiers, retry: cfg, metrics: m}
}

// Classify returns the first successful result. When every classifier
// fails, the joined errors are returned.
func (f *FallbackClassifier) Classify(ctx context.Context, q Query) (*Result, error) {
	if f == nil || len(f.chain) == 0 {
		return nil, errors.New("intent classifier not configured")
	}

	var errs []error
	for i, c := range f.chain {
		start := time.Now()
		result, err := f.classifyWithRetry(ctx, c, q)
		if err == nil {
			if f.metrics != nil {
				f.metrics.RecordClassification(string(c.Provider()), result.Name, time.Since(start).Seconds())
			}
			return result, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", c.Provider(), err))

		action := ClassifyError(err)
		slog.WarnContext(ctx, "intent classifier failed",
			"provider", c.Provider(),
			"action", action,
			"duration", time.Since(start),
			"error", err)

		if action == ActionFail || ctx.Err() != nil || i == len(f.chain)-1 {
			break
		}

		next := f.chain[i+1].Provider()
		slog.InfoContext(ctx, "falling back to next intent classifier",
			"from", c.Provider(),
			"to", next)
		if f.metrics != nil {
			f.metrics.RecordNLUFallback(string(c.Provider()), string(next))
		}
	}

	return nil, fmt.Errorf("intent classification failed: %w", errors.Join(errs...))
}

func (f *FallbackClassifier) classifyWithRetry(ctx context.Context, c Classifier, q Query) (*Result, error) {
	var lastErr error

	for attempt := range f.retry.MaxAttempts {
		if attempt > 0 {
			backoff := apiclient.CalculateBackoff(attempt, f.retry.InitialDelay, f.retry.MaxDelay)
			slog.DebugContext(ctx, "retrying intent classification",
				"provider", c.Provider(),
				"attempt", attempt+1,
				"backoff", backoff)
			if err := apiclient.Sleep(ctx, backoff); err != nil {
				return nil, fmt.Errorf("retry interrupted: %w (last error: %w)", err, lastErr)
			}
		}

		result, err := c.Classify(ctx, q)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry {
			return nil, err
		}
	}

	return nil, lastErr
}

// Provider returns the first classifier's provider.
func (f *FallbackClassifier) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Len returns the chain length.
func (f *FallbackClassifier) Len() int {
	return len(f.chain)
}

// Close closes every classifier in the chain.
func (f *FallbackClassifier) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, c := range f.chain {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
