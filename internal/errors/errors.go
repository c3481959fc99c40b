// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNoResults indicates an upstream search returned nothing.
	ErrNoResults = errors.New("no results")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownIntent indicates an intent name outside the supported set.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrNotConfigured indicates a feature has no credentials.
	ErrNotConfigured = errors.New("not configured")
)

// APIError represents a failed call to an external HTTP API.
type APIError struct {
	Service    string // places, imagesearch, dialogflow
	URL        string // Without query string, so keys are never logged
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s api error (url=%s, status=%d): %v", e.Service, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s api error (url=%s): %v", e.Service, e.URL, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new API error.
func NewAPIError(service, url string, statusCode int, err error) *APIError {
	return &APIError{
		Service:    service,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// IsPermanent reports whether retrying err cannot help: a 4xx response other
// than 408 and 429.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.StatusCode
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}

// StatusCode extracts the HTTP status from an APIError chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
