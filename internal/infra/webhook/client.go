// Package webhook forwards chat messages to the automation webhook that
// produces the assistant's replies.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"chatwidget/internal/observability/metrics"
	"chatwidget/internal/observability/slo"
	"chatwidget/internal/observability/tracing"
	"chatwidget/internal/resilience/circuitbreaker"
	"chatwidget/internal/resilience/retry"
)

const (
	// maxResponseSize bounds the webhook reply relayed to the widget.
	maxResponseSize = 1 * 1024 * 1024

	// maxErrorBodySize bounds the part of an error body kept in the error message.
	maxErrorBodySize = 256
)

// ErrNotConfigured is returned when no webhook URL is set.
var ErrNotConfigured = errors.New("webhook URL is not configured")

// Config contains configuration for the chat webhook.
type Config struct {
	// URL is the automation webhook endpoint (includes its authentication token)
	URL string

	// Timeout bounds one HTTP attempt
	Timeout time.Duration
}

// Client posts JSON payloads to the webhook and returns its reply as JSON.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retry      retry.Config
}

// NewClient creates a Client.
//
// The client is initialized with:
//   - HTTP client with the configured timeout
//   - circuit breaker tuned for the webhook (opens after 60% failures)
//   - retry on 5xx, 429 and transport errors (2 attempts)
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    circuitbreaker.New(circuitbreaker.WebhookConfig()),
		retry:      retry.WebhookConfig(),
	}
}

// Send posts payload to the webhook and returns the reply body.
// A JSON reply is returned unchanged; any other reply is returned as a JSON
// string so callers always relay valid JSON.
//
// Returns:
//   - json.RawMessage: the reply, never empty on success
//   - error: ErrNotConfigured, an *retry.HTTPError for non-2xx replies,
//     gobreaker.ErrOpenState while the breaker is open, or a transport error
func (c *Client) Send(ctx context.Context, payload any) (json.RawMessage, error) {
	if c.config.URL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}

	ctx, span := tracing.StartSpan(ctx, "webhook.send", attribute.Int("webhook.request_size", len(body)))
	defer span.End()

	start := time.Now()
	var reply json.RawMessage
	status := 0

	err = retry.WithBackoff(ctx, c.retry, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.post(ctx, body)
		})
		if err != nil {
			var httpErr *retry.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.StatusCode
			}
			return err
		}
		res := result.(postResult)
		status = res.status
		reply = res.body
		return nil
	})

	metrics.RecordWebhookCall(status, time.Since(start))
	slo.Observe(err == nil, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", status))
	tracing.RecordError(span, err)
	if err != nil {
		slog.Warn("webhook call failed",
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return nil, err
	}
	return reply, nil
}

type postResult struct {
	status int
	body   json.RawMessage
}

func (c *Client) post(ctx context.Context, body []byte) (postResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return postResult{}, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return postResult{}, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return postResult{}, fmt.Errorf("read webhook response: %w", err)
	}
	if len(raw) > maxResponseSize {
		return postResult{}, fmt.Errorf("webhook response exceeds %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := raw
		if len(snippet) > maxErrorBodySize {
			snippet = snippet[:maxErrorBodySize]
		}
		return postResult{}, retry.NewHTTPError(resp,
			fmt.Sprintf("webhook responded with status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}

	return postResult{status: resp.StatusCode, body: asJSON(raw)}, nil
}

// asJSON returns raw unchanged when it is valid JSON and as a JSON string otherwise.
func asJSON(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c.config.URL != ""
}

// BreakerState returns the circuit breaker state, e.g. "closed" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
