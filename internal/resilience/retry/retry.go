// Package retry re-runs outbound calls that failed for transient reasons,
// with exponential backoff, jitter and Retry-After support.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	// Name identifies the operation in logs, e.g. "webhook"
	Name string

	// MaxAttempts is the total number of attempts, the first included
	MaxAttempts int

	// InitialDelay is the delay before the second attempt
	InitialDelay time.Duration

	// MaxDelay caps both the backoff and any Retry-After hint
	MaxDelay time.Duration

	// Multiplier grows the delay after every attempt
	Multiplier float64

	// JitterFraction is the fraction of delay added as random jitter (0.0 to 1.0)
	JitterFraction float64
}

// WebhookConfig returns configuration for conversational webhook calls.
// Few attempts: the widget user is waiting on the reply.
func WebhookConfig() Config {
	return Config{
		Name:           "webhook",
		MaxAttempts:    2,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// PageFetchConfig returns configuration for page metadata fetches.
// The metadata budget is short, so retries are fast.
func PageFetchConfig() Config {
	return Config{
		Name:           "page_fetch",
		MaxAttempts:    2,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       1 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff runs fn until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx is done. A Retry-After hint on an *HTTPError
// replaces the computed delay, capped at MaxDelay.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)
	logger := slog.Default().With(slog.String("operation", cfg.Name))
	delay := cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		wait := addJitter(delay, cfg.JitterFraction)
		var httpErr *HTTPError
		if errors.As(lastErr, &httpErr) && httpErr.RetryAfter > 0 {
			wait = httpErr.RetryAfter
		}
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}

		logger.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", lastErr))

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable reports whether err is transient: a network timeout, a refused
// or reset connection, or an upstream 408, 429 or 5xx.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx reply from an upstream.
type HTTPError struct {
	StatusCode int
	Message    string

	// RetryAfter is the upstream's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError builds an HTTPError from a response, reading its Retry-After header.
func NewHTTPError(resp *http.Response, message string) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    message,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// ParseRetryAfter reads a Retry-After value given in seconds or as an HTTP
// date. Missing, malformed or past values yield zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- backoff jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
