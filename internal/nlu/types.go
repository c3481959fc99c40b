// Package nlu classifies user text into a dialog intent name.
//
// Dialogflow is the primary classifier. Gemini and Groq, driven through
// function calling, can serve as fallbacks in a configurable order.
package nlu

import (
	"context"
	"time"
)

// Provider identifies an intent classification backend.
type Provider string

const (
	ProviderDialogflow Provider = "dialogflow"
	ProviderGemini     Provider = "gemini"
	ProviderGroq       Provider = "groq"
)

// ProviderEndpoint maps OpenAI-compatible providers to their base URL.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq: "https://api.groq.com/openai/v1/",
}

// ParseProvider maps a configuration value to a Provider.
func ParseProvider(s string) (Provider, bool) {
	switch p := Provider(s); p {
	case ProviderDialogflow, ProviderGemini, ProviderGroq:
		return p, true
	default:
		return "", false
	}
}

// Query is one classification request.
type Query struct {
	Text      string
	SessionID string // LINE user id, lets Dialogflow keep per-user context
	Lang      Lang
}

// Result is the classifier output. Name is an intent name such as
// "what to eat"; it is not validated here.
type Result struct {
	Name         string
	Provider     Provider
	FunctionName string // LLM providers only
}

// Classifier maps a user message to an intent name.
type Classifier interface {
	Classify(ctx context.Context, q Query) (*Result, error)
	Provider() Provider
	Close() error
}

// RetryConfig controls per-classifier retries.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Default LLM models, tried in order.
var (
	DefaultGeminiIntentModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}
	DefaultGroqIntentModels   = []string{"meta-llama/llama-4-maverick-17b-128e-instruct", "llama-3.3-70b-versatile"}
)

const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}
