// Package http provides the HTTP surface of the widget backend: health
// endpoints, the widget info document, metrics collection and the middleware
// chain shared by the chat and preview handlers.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"` // "healthy", "degraded" or "unhealthy"
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// WebhookStatus reports on the chat webhook client.
type WebhookStatus interface {
	Configured() bool
	BreakerState() string
}

// BreakerReporter reports a circuit breaker state.
type BreakerReporter interface {
	BreakerState() string
}

// ClientCounter reports on the per-client rate limiter.
type ClientCounter interface {
	Enabled() bool
	ActiveClients() int
}

const breakerOpen = "open"

// HealthHandler reports the state of every outbound dependency.
// A missing webhook makes the service unhealthy; open breakers only degrade it.
type HealthHandler struct {
	Version   string
	Webhook   WebhookStatus
	Fetcher   BreakerReporter
	Limiter   ClientCounter
	ProbeMode string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckStatus)
	allHealthy := true

	webhookCheck := h.checkWebhook()
	checks["webhook"] = webhookCheck
	if webhookCheck.Status == "unhealthy" {
		allHealthy = false
	}

	if h.Fetcher != nil {
		checks["page_fetch"] = breakerCheck(h.Fetcher.BreakerState())
	}

	if h.Limiter != nil && h.Limiter.Enabled() {
		checks["rate_limiter"] = CheckStatus{
			Status:  "healthy",
			Details: map[string]any{"active_clients": h.Limiter.ActiveClients()},
		}
	}

	if h.ProbeMode != "" {
		checks["probe"] = CheckStatus{
			Status:  "healthy",
			Details: map[string]any{"mode": h.ProbeMode},
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode health response", slog.Any("error", err))
	}
}

func (h *HealthHandler) checkWebhook() CheckStatus {
	if h.Webhook == nil || !h.Webhook.Configured() {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}
	return breakerCheck(h.Webhook.BreakerState())
}

func breakerCheck(state string) CheckStatus {
	check := CheckStatus{
		Status:  "healthy",
		Details: map[string]any{"circuit_breaker": state},
	}
	if state == breakerOpen {
		check.Status = "degraded"
		check.Message = "circuit breaker open"
	}
	return check
}

// ReadyHandler handles readiness probes. The service is ready once the
// webhook is configured and its breaker is not open.
type ReadyHandler struct {
	Webhook WebhookStatus
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.Webhook == nil || !h.Webhook.Configured():
		http.Error(w, "webhook not configured", http.StatusServiceUnavailable)
		return
	case h.Webhook.BreakerState() == breakerOpen:
		http.Error(w, "webhook circuit open", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		slog.Debug("ready: failed to write response", slog.Any("error", err))
	}
}

// LiveHandler handles liveness probes.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		slog.Debug("alive: failed to write response", slog.Any("error", err))
	}
}
