// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// RateLimitedTotal counts requests rejected by the per-client limiter
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

// Chat proxy metrics
var (
	// ChatMessagesTotal counts chat messages by outcome
	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat messages proxied to the webhook",
		},
		[]string{"result"}, // result: success, invalid, upstream_error
	)

	// WebhookDuration measures round-trip time to the conversational webhook
	WebhookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_webhook_duration_seconds",
			Help:    "Round-trip time of conversational webhook calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"status"},
	)
)

// Preview metrics track the link-preview engine
var (
	// PreviewClassificationsTotal counts classified URLs by content kind
	PreviewClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_classifications_total",
			Help: "Total number of URLs classified by content kind",
		},
		[]string{"kind"},
	)

	// PreviewResolutionsTotal counts terminal preview views by kind and mode
	PreviewResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_resolutions_total",
			Help: "Total number of previews that reached a terminal view",
		},
		[]string{"kind", "mode"},
	)

	// PreviewStaleResultsTotal counts task results discarded by the staleness check
	PreviewStaleResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preview_stale_results_total",
			Help: "Total number of task results discarded because their preview was no longer active",
		},
	)

	// EmbedProbesTotal counts embeddability probes by result
	EmbedProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_embed_probes_total",
			Help: "Total number of embeddability probes",
		},
		[]string{"result"}, // result: success, error, timeout, canceled
	)

	// EmbedProbeDuration measures how long a probe took to resolve
	EmbedProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preview_embed_probe_duration_seconds",
			Help:    "Time taken for an embeddability probe to resolve",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	// MetadataResolutionsTotal counts metadata resolutions by source and result
	MetadataResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_metadata_resolutions_total",
			Help: "Total number of page metadata resolutions",
		},
		[]string{"source", "result"}, // result: success, fallback, cache_hit
	)

	// MetadataFetchDuration measures time to fetch and parse a page
	MetadataFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_metadata_fetch_duration_seconds",
			Help:    "Time taken to fetch page metadata",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
		[]string{"source"},
	)

	// PageFetchSize measures fetched page size in bytes
	PageFetchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "preview_page_fetch_size_bytes",
			Help: "Fetched page size in bytes",
			Buckets: []float64{
				1024, 4096, 16384, 65536, 262144,
				1048576, 2097152, 5242880, 10485760, // up to 10MB
			},
		},
	)

	// PageCacheHitsTotal counts fetches answered from the page cache
	PageCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preview_page_cache_hits_total",
			Help: "Total number of page fetches served from the page cache",
		},
	)
)

// Resilience metrics track outbound circuit breakers
var (
	// CircuitBreakerState is 0 when closed, 1 when half-open and 2 when open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts state changes by breaker and target state
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"name", "to"},
	)
)

// RecordBreakerState records a breaker entering state, where level is
// 0 for closed, 1 for half-open and 2 for open.
func RecordBreakerState(name, state string, level int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(level))
	CircuitBreakerTransitions.WithLabelValues(name, state).Inc()
}

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordRateLimited records a request rejected by the rate limiter.
func RecordRateLimited(path string) {
	RateLimitedTotal.WithLabelValues(path).Inc()
}
