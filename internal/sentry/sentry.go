// Package sentry wraps the Sentry Go SDK for error tracking.
package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/whattoeat-linebot/internal/ctxutil"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN is the project DSN. Empty disables Sentry.
	DSN string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// TracesSampleRate controls performance tracing (0 disables it).
	TracesSampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK. If DSN is empty, Sentry is disabled
// and nil is returned.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureExceptionWithContext captures an error tagged with the tracing
// values found in ctx (user, request, event) plus the given module.
func CaptureExceptionWithContext(ctx context.Context, module string, err error) {
	if err == nil || !IsEnabled() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(Tags(ctx, module))
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		hub.CaptureException(err)
	})
}

// Tags builds the Sentry tag set for ctx.
func Tags(ctx context.Context, module string) map[string]string {
	tags := map[string]string{}
	if module != "" {
		tags["module"] = module
	}
	if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
		tags["request_id"] = requestID
	}
	if eventID := ctxutil.GetEventID(ctx); eventID != "" {
		tags["event_id"] = eventID
	}
	if lang := ctxutil.GetLang(ctx); lang != "" {
		tags["lang"] = lang
	}
	return tags
}
