// Package circuitbreaker guards outbound calls with github.com/sony/gobreaker
// so that a failing upstream is not hammered by every widget request.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"chatwidget/internal/observability/metrics"
	"chatwidget/internal/resilience/retry"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear success/failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit, e.g. 0.6
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32

	// IsSuccessful decides which errors leave the failure count untouched.
	// Nil counts every error as a failure.
	IsSuccessful func(err error) bool
}

// WebhookConfig returns configuration for the conversational webhook.
// The webhook is a single upstream, so it trips early and recovers fast.
// Any error counts: a 4xx from the webhook means it is misconfigured.
func WebhookConfig() Config {
	return Config{
		Name:             "chat-webhook",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// PageFetchConfig returns configuration for direct page fetches.
// Pages come from arbitrary hosts, so the threshold is tolerant and a page
// that answers 404 does not count against the fetcher.
func PageFetchConfig() Config {
	return Config{
		Name:             "page-fetch",
		MaxRequests:      5,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      10,
		IsSuccessful:     IgnoreClientErrors,
	}
}

// RelayConfig returns configuration for the metadata relay.
func RelayConfig() Config {
	return Config{
		Name:             "metadata-relay",
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
		IsSuccessful:     IgnoreClientErrors,
	}
}

// IgnoreClientErrors treats caller cancellation and upstream 4xx replies,
// other than 408 and 429, as healthy outcomes for the upstream.
func IgnoreClientErrors(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return code >= 400 && code < 500 &&
			code != http.StatusRequestTimeout &&
			code != http.StatusTooManyRequests
	}
	return false
}

// CircuitBreaker wraps gobreaker.CircuitBreaker and publishes its state.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.RecordBreakerState(name, to.String(), stateLevel(to))
		},
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

func stateLevel(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Execute runs fn through the breaker. While the circuit is open it returns
// gobreaker.ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether the circuit is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
