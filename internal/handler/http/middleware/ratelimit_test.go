package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"chatwidget/internal/observability/metrics"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rps float64, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: rps, Burst: burst, IdleTTL: time.Minute}, nil)
	rl.now = clock.now
	return rl, clock
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_TokenBucket(t *testing.T) {
	rl, clock := newTestLimiter(1, 2)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	before := testutil.ToFloat64(metrics.RateLimitedTotal.WithLabelValues("/api/chat"))

	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.1:1001").Code)

	limited := doRequest(handler, "192.0.2.1:1002")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", limited.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests", body["error"])
	assert.EqualValues(t, 1, body["retry_after"])

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitedTotal.WithLabelValues("/api/chat")))

	// A rejected request does not consume a token.
	clock.advance(time.Second)
	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.1:1003").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "192.0.2.1:1004").Code)
}

func TestRateLimiter_SeparateClients(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.2:1000").Code)
	assert.Equal(t, 2, rl.ActiveClients())
}

func TestRateLimiter_RoutesHaveSeparateBudgets(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	send := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("/api/preview"))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/preview"))
	assert.Equal(t, http.StatusOK, send("/api/relay"), "relay keeps its own budget")
	assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.1:1000").Code, "chat keeps its own budget")
	assert.Equal(t, 3, rl.ActiveClients())
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl, _ := newTestLimiter(0, 1)
	assert.False(t, rl.Enabled())

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doRequest(handler, "192.0.2.1:1000").Code)
	}
	assert.Zero(t, rl.ActiveClients())
}

func TestRateLimiter_UnidentifiableClientIsAllowed(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(handler, "garbage").Code)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(1, 1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	doRequest(handler, "192.0.2.1:1000")
	clock.advance(30 * time.Second)
	doRequest(handler, "192.0.2.2:1000")

	clock.advance(45 * time.Second)
	assert.Equal(t, 1, rl.Cleanup(), "only the recently seen client survives")

	clock.advance(time.Hour)
	assert.Equal(t, 0, rl.Cleanup())
}

func TestRateLimiter_RunCleanupStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl, _ := newTestLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.RunCleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not stop after cancel")
	}
}
