package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the cross-origin policy of the widget API.
type CORSConfig struct {
	Validator      OriginValidator
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         int
	Logger         *slog.Logger
}

// DefaultCORSConfig returns the policy for a widget embedded on any site.
func DefaultCORSConfig(origins []string, logger *slog.Logger) CORSConfig {
	return CORSConfig{
		Validator:      NewOriginValidator(origins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Trace-Id", "Retry-After"},
		MaxAge:         86400,
		Logger:         logger,
	}
}

// CORS returns middleware applying config. Requests without an Origin header
// pass through untouched. Disallowed origins get no CORS headers and the
// browser blocks the response. Preflight requests from allowed origins are
// answered with 204 and never reach next.
//
// A wildcard policy answers with "Access-Control-Allow-Origin: *" and never
// allows credentials.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	_, wildcard := config.Validator.(AnyOriginValidator)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !config.Validator.IsAllowed(origin) {
				logger.Warn("CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("remote_addr", r.RemoteAddr),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			if len(config.ExposedHeaders) > 0 {
				h.Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				h.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				logger.Debug("CORS: preflight request",
					slog.String("origin", origin),
					slog.String("requested_method", r.Header.Get("Access-Control-Request-Method")),
					slog.String("requested_headers", r.Header.Get("Access-Control-Request-Headers")),
				)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
