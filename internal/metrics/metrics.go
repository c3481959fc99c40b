// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Outbound API metrics (Places, Custom Search, Dialogflow)
	APIRequestsTotal   *prometheus.CounterVec
	APIDurationSeconds *prometheus.HistogramVec

	// NLU metrics
	NLUClassificationsTotal *prometheus.CounterVec
	NLUDurationSeconds      *prometheus.HistogramVec
	NLUFallbackTotal        *prometheus.CounterVec

	// Restaurant metrics
	RestaurantSearchesTotal *prometheus.CounterVec
	RestaurantCandidates    prometheus.Histogram

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheEntries     *prometheus.GaugeVec

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec
	RepliesTotal           *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Background job metrics
	JobRunsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_api_requests_total",
				Help: "Total number of outbound API requests by service and status",
			},
			[]string{"service", "status"}, // status: success, error, client_error, timeout
		),

		APIDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whattoeat_api_duration_seconds",
				Help:    "Outbound API request duration in seconds by service",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"service"}, // service: places, imagesearch, dialogflow
		),

		NLUClassificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_nlu_classifications_total",
				Help: "Total number of intent classifications by provider and intent",
			},
			[]string{"provider", "intent"},
		),

		NLUDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whattoeat_nlu_duration_seconds",
				Help:    "Intent classification duration in seconds by provider",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"provider"},
		),

		NLUFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_nlu_fallback_total",
				Help: "Total number of classifier fallbacks by source and target provider",
			},
			[]string{"from", "to"},
		),

		RestaurantSearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_restaurant_searches_total",
				Help: "Total number of restaurant searches by outcome",
			},
			[]string{"outcome"}, // outcome: carousel, random_pick, empty, error
		),

		RestaurantCandidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "whattoeat_restaurant_candidates",
				Help:    "Number of nearby restaurants returned per search",
				Buckets: []float64{0, 1, 5, 10, 15, 20},
			},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_cache_hits_total",
				Help: "Total number of cache hits by cache",
			},
			[]string{"cache"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_cache_misses_total",
				Help: "Total number of cache misses by cache",
			},
			[]string{"cache"},
		),

		CacheEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "whattoeat_cache_entries",
				Help: "Current number of cached entries by cache",
			},
			[]string{"cache"},
		),

		WebhookDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whattoeat_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"event_type"}, // event_type: text, location, other
		),

		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, skipped
		),

		RepliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_replies_total",
				Help: "Total number of LINE reply calls by kind and status",
			},
			[]string{"kind", "status"}, // kind: text, buttons, carousel
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: invalid_signature, parse_error, etc.
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"},
		),

		JobRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whattoeat_job_runs_total",
				Help: "Total number of background job runs by job and status",
			},
			[]string{"job", "status"},
		),
	}
}

// RecordAPIRequest records an outbound API request with status
func (m *Metrics) RecordAPIRequest(service, status string, duration float64) {
	m.APIRequestsTotal.WithLabelValues(service, status).Inc()
	m.APIDurationSeconds.WithLabelValues(service).Observe(duration)
}

// RecordClassification records a successful intent classification
func (m *Metrics) RecordClassification(provider, intent string, duration float64) {
	m.NLUClassificationsTotal.WithLabelValues(provider, intent).Inc()
	m.NLUDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordNLUFallback records switching from one classifier to the next
func (m *Metrics) RecordNLUFallback(from, to string) {
	m.NLUFallbackTotal.WithLabelValues(from, to).Inc()
}

// RecordRestaurantSearch records a restaurant search outcome
func (m *Metrics) RecordRestaurantSearch(outcome string, candidates int) {
	m.RestaurantSearchesTotal.WithLabelValues(outcome).Inc()
	if candidates >= 0 {
		m.RestaurantCandidates.Observe(float64(candidates))
	}
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// SetCacheEntries sets the current cache size
func (m *Metrics) SetCacheEntries(cache string, n int) {
	m.CacheEntries.WithLabelValues(cache).Set(float64(n))
}

// RecordWebhook records a webhook event
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordReply records a LINE reply call
func (m *Metrics) RecordReply(kind, status string) {
	m.RepliesTotal.WithLabelValues(kind, status).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// RecordJob records a background job run
func (m *Metrics) RecordJob(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}
