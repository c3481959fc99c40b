// Package apiclient provides the JSON HTTP client shared by the Google
// Places, Custom Search and Dialogflow integrations: per-request timeout,
// gzip decoding, retry with backoff and per-service metrics.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/garyellow/whattoeat-linebot/internal/config"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Config configures a Client for one upstream service.
type Config struct {
	Service      string        // Metrics label and error context: places, imagesearch, dialogflow
	Timeout      time.Duration // Per attempt
	MaxRetries   int
	InitialDelay time.Duration // Defaults to config.APIRetryInitial
	MaxDelay     time.Duration // Defaults to config.APIRetryMax
	HTTPClient   *http.Client  // Optional, mainly for tests
}

// Client is a JSON-over-HTTP client with retries.
type Client struct {
	service      string
	httpClient   *http.Client
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	metrics      *metrics.Metrics
}

// NewClient creates a client; m may be nil.
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	initial := cfg.InitialDelay
	if initial <= 0 {
		initial = config.APIRetryInitial
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = config.APIRetryMax
	}

	return &Client{
		service:      cfg.Service,
		httpClient:   httpClient,
		maxRetries:   cfg.MaxRetries,
		initialDelay: initial,
		maxDelay:     maxDelay,
		metrics:      m,
	}
}

// Service returns the upstream service name.
func (c *Client) Service() string {
	return c.service
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	return c.do(ctx, http.MethodGet, rawURL, nil, nil, out)
}

// PostJSON encodes in as the request body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, header http.Header, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, header, body, out)
}

func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header, body []byte, out any) error {
	start := time.Now()
	safeURL := redactURL(rawURL)

	err := RetryWithBackoff(ctx, c.maxRetries, c.initialDelay, c.maxDelay, func() error {
		return c.attempt(ctx, method, rawURL, safeURL, header, body, out)
	})

	c.record(err, time.Since(start))
	return err
}

func (c *Client) attempt(ctx context.Context, method, rawURL, safeURL string, header http.Header, body []byte, out any) error {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return domerrors.NewAPIError(c.service, safeURL, http.StatusBadRequest, fmt.Errorf("failed to create request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domerrors.NewAPIError(c.service, safeURL, 0, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	reader, err := decodeBody(resp)
	if err != nil {
		return domerrors.NewAPIError(c.service, safeURL, resp.StatusCode, err)
	}
	defer func() { _ = reader.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(reader, 512))
		return domerrors.NewAPIError(c.service, safeURL, resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(reader, maxBodyBytes)).Decode(out); err != nil {
		return domerrors.NewAPIError(c.service, safeURL, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// decodeBody unwraps a gzip encoded body. Accept-Encoding is set manually,
// so net/http leaves decompression to us.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.NopCloser(resp.Body), nil
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip: %w", err)
	}
	return gz, nil
}

func (c *Client) record(err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordAPIRequest(c.service, Status(err), duration.Seconds())
}

// Status maps an error to a metrics status label.
func Status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case domerrors.IsPermanent(err):
		return "client_error"
	default:
		return "error"
	}
}

// redactURL drops the query string, which carries API keys.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
