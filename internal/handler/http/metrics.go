package http

import (
	"net/http"
	"strconv"
	"time"

	"chatwidget/internal/handler/http/pathutil"
	"chatwidget/internal/handler/http/responsewriter"
	"chatwidget/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsMiddleware records request count, duration and sizes per route.
// Paths are reduced to registered routes so unknown URLs share one label.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		path := pathutil.NormalizePath(r.URL.Path)
		wrapped := responsewriter.Wrap(w)

		start := time.Now()
		next.ServeHTTP(wrapped, r)

		requestSize := 0
		if r.ContentLength > 0 {
			requestSize = int(r.ContentLength)
		}
		metrics.RecordHTTPRequest(
			r.Method,
			path,
			strconv.Itoa(wrapped.StatusCode()),
			time.Since(start),
			requestSize,
			wrapped.BytesWritten(),
		)
	})
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
