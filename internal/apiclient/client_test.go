package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
)

type payload struct {
	Status string `json:"status"`
}

func newTestClient(m *metrics.Metrics, retries int) *Client {
	return NewClient(Config{
		Service:      "places",
		Timeout:      time.Second,
		MaxRetries:   retries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}, m)
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		_ = json.NewEncoder(w).Encode(payload{Status: "OK"})
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	var out payload
	err := newTestClient(m, 2).GetJSON(context.Background(), srv.URL+"/json?key=secret", &out)

	require.NoError(t, err)
	assert.Equal(t, "OK", out.Status)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("places", "success")))
}

func TestGetJSON_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "REQUEST_DENIED", http.StatusForbidden)
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	err := newTestClient(m, 3).GetJSON(context.Background(), srv.URL+"/json?key=secret", &payload{})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, domerrors.IsPermanent(err))
	assert.Equal(t, http.StatusForbidden, domerrors.StatusCode(err))
	assert.NotContains(t, err.Error(), "secret", "API key must not leak into errors")
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("places", "client_error")))
}

func TestGetJSON_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := newTestClient(nil, 2).GetJSON(context.Background(), srv.URL, &payload{})

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, http.StatusTooManyRequests, domerrors.StatusCode(err))
	assert.Equal(t, "error", Status(err))
}

func TestGetJSON_Gzip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(`{"status":"ZERO_RESULTS"}`))
		_ = gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	var out payload
	require.NoError(t, newTestClient(nil, 0).GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "ZERO_RESULTS", out.Status)
}

func TestGetJSON_DecodeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	err := newTestClient(nil, 0).GetJSON(context.Background(), srv.URL, &payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"))

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(payload{Status: in["query"]})
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer token")

	var out payload
	err := newTestClient(nil, 0).PostJSON(context.Background(), srv.URL, header, map[string]string{"query": "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Status)
}

func TestGetJSON_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestClient(nil, 5).GetJSON(ctx, srv.URL, &payload{})
	require.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
		redactURL("https://maps.googleapis.com/maps/api/place/nearbysearch/json?key=abc&location=1,2"))
	assert.Equal(t, "invalid-url", redactURL("://bad"))
}

func TestCalculateBackoff(t *testing.T) {
	t.Parallel()

	assert.Zero(t, CalculateBackoff(0, time.Second, time.Minute))
	for attempt := 1; attempt <= 6; attempt++ {
		d := CalculateBackoff(attempt, 100*time.Millisecond, time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, time.Second+time.Nanosecond)
	}
}
