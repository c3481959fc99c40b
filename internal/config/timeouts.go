// Package config provides centralized timeout constants for the application.
//
// # LINE API Constraints
//
// LINE expects a quick 200 OK on the webhook, so events are processed after
// the response has been written. A reply token stays valid for a while but
// the user is waiting on the other side, so the whole event pipeline
// (classification, places search, menu lookups, reply) is bounded by
// WebhookProcessing.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook event.
	// Covers the NLU call or the places search plus the menu lookups.
	WebhookProcessing = 30 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Should be short since LINE sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Outbound API timeouts
const (
	// APIRequest is the timeout for a single request to Google or Dialogflow.
	APIRequest = 10 * time.Second

	// APIRetryInitial is the initial delay before retrying a failed request.
	// Uses exponential backoff with full jitter: 500ms -> 1s -> 2s
	APIRetryInitial = 500 * time.Millisecond

	// APIRetryMax caps the backoff delay between retries.
	APIRetryMax = 5 * time.Second

	// NLUClassify bounds a whole classification including provider fallback.
	NLUClassify = 15 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// CacheCleanupInterval is how often expired menu links are deleted.
	CacheCleanupInterval = 24 * time.Hour

	// CacheCleanupInitialDelay is the delay before first cache cleanup.
	CacheCleanupInitialDelay = 5 * time.Minute

	// MetricsUpdateInterval is how often cache size metrics are updated.
	MetricsUpdateInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
