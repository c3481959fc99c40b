// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvLineChannelAccessToken = "ACCESS_TOKEN"
	EnvLineChannelSecret      = "SECRET"
	EnvGoogleAPIKey           = "GOOGLE_API_KEY"
	EnvSearchEngineID         = "CX"

	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir  = "DATA_DIR"
	EnvCacheTTL = "CACHE_TTL"

	// Outbound APIs
	EnvAPITimeout    = "API_TIMEOUT"
	EnvAPIMaxRetries = "API_MAX_RETRIES"

	// Webhook
	EnvWebhookTimeout = "WEBHOOK_TIMEOUT"

	// NLU
	EnvNLUProviders          = "NLU_PROVIDERS"
	EnvDialogflowClientToken = "DIALOGFLOW_CLIENT_ACCESS_TOKEN"
	EnvDialogflowBaseURL     = "DIALOGFLOW_BASE_URL"
	EnvGeminiAPIKey          = "GEMINI_API_KEY"
	EnvGroqAPIKey            = "GROQ_API_KEY"
	EnvGeminiIntentModels    = "GEMINI_INTENT_MODELS"
	EnvGroqIntentModels      = "GROQ_INTENT_MODELS"

	// Sentry Feature
	EnvSentryDSN              = "SENTRY_DSN"
	EnvSentryEnvironment      = "SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "SENTRY_RELEASE"
	EnvSentrySampleRate       = "SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken = "BETTERSTACK_TOKEN"

	// Metrics Auth Feature
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)
