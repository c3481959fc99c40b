package nlu

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"

	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
)

// ErrorAction is what the fallback chain does after a classifier error.
type ErrorAction int

const (
	// ActionRetry retries the same classifier after a backoff.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next classifier.
	ActionFallback
	// ActionFail stops the chain.
	ActionFail
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ClassifyError decides how to react to a classifier error:
//   - 429, 408, 5xx, timeouts and network errors retry
//   - quota exhaustion and other 4xx fall back to the next provider
//   - cancellation and invalid input fail
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, domerrors.ErrInvalidInput) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}
	if errors.Is(err, domerrors.ErrUnknownIntent) {
		return ActionFallback
	}

	if code := statusCode(err); code > 0 {
		return classifyStatusCode(code)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "quota", "billing", "daily limit"):
		return ActionFallback
	case containsAny(msg, "rate limit", "too many requests", "resource_exhausted",
		"unavailable", "overloaded", "internal server error", "bad gateway",
		"gateway timeout", "timeout", "connection"):
		return ActionRetry
	default:
		return ActionFallback
	}
}

func statusCode(err error) int {
	if code := domerrors.StatusCode(err); code > 0 {
		return code
	}
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode
	}
	return 0
}

func classifyStatusCode(code int) ErrorAction {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code >= 500:
		return ActionRetry
	default:
		return ActionFallback
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
