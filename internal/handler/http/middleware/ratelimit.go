package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chatwidget/internal/handler/http/pathutil"
	"chatwidget/internal/observability/metrics"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained refill rate. Zero or less disables limiting.
	RequestsPerSecond float64
	Burst             int
	// IdleTTL is how long an untouched client bucket is kept.
	IdleTTL time.Duration
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP and route, so a client
// busy on one route keeps its budget on the others.
type RateLimiter struct {
	config      RateLimitConfig
	ipExtractor IPExtractor
	now         func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
}

// NewRateLimiter returns a limiter identifying clients with ipExtractor.
func NewRateLimiter(config RateLimitConfig, ipExtractor IPExtractor) *RateLimiter {
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if ipExtractor == nil {
		ipExtractor = &RemoteAddrExtractor{}
	}
	return &RateLimiter{
		config:      config,
		ipExtractor: ipExtractor,
		now:         time.Now,
		clients:     make(map[string]*clientBucket),
	}
}

// Enabled reports whether requests are limited at all.
func (rl *RateLimiter) Enabled() bool {
	return rl.config.RequestsPerSecond > 0
}

// Middleware rejects requests over budget with 429, a Retry-After header and
// a JSON body. Requests whose client cannot be identified are let through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.ipExtractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: cannot identify client, allowing request",
				slog.String("error", err.Error()),
				slog.String("remote_addr", r.RemoteAddr),
			)
			next.ServeHTTP(w, r)
			return
		}

		now := rl.now()
		route := pathutil.NormalizePath(r.URL.Path)
		reservation := rl.reserve(bucketKey(ip, route), now)
		delay := reservation.DelayFrom(now)
		if delay == 0 {
			next.ServeHTTP(w, r)
			return
		}
		reservation.CancelAt(now)

		retryAfter := int64(math.Ceil(delay.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		rl.writeLimited(w, r, ip, route, retryAfter)
	})
}

func bucketKey(ip, route string) string {
	return ip + " " + route
}

func (rl *RateLimiter) reserve(key string, now time.Time) *rate.Reservation {
	rl.mu.Lock()
	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.clients[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()
	return b.limiter.ReserveN(now, 1)
}

func (rl *RateLimiter) writeLimited(w http.ResponseWriter, r *http.Request, ip, path string, retryAfter int64) {
	metrics.RecordRateLimited(path)
	slog.Warn("rate limit exceeded",
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("method", r.Method),
		slog.Int64("retry_after", retryAfter),
	)

	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":       "Too many requests",
		"retry_after": retryAfter,
	})
}

// Cleanup drops buckets idle for longer than IdleTTL and returns how many remain.
func (rl *RateLimiter) Cleanup() int {
	cutoff := rl.now().Add(-rl.config.IdleTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	return len(rl.clients)
}

// ActiveClients returns the number of tracked client and route buckets.
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := rl.Cleanup()
			slog.Debug("rate limiter cleanup completed", slog.Int("active_clients", remaining))
		}
	}
}
