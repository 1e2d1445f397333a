package http

import (
	"net/http"
)

const (
	maxPathLength = 2048

	// DefaultMaxQueryLength leaves room for a 2 KB preview URL after encoding.
	DefaultMaxQueryLength = 4096
)

// InputValidation rejects request lines the widget would never send:
// paths over 2 KB and query strings over maxQuery bytes.
func InputValidation(maxQuery int) func(http.Handler) http.Handler {
	if maxQuery <= 0 {
		maxQuery = DefaultMaxQueryLength
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > maxPathLength {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestURITooLong)
				_, _ = w.Write([]byte(`{"error":"URI too long"}`))
				return
			}

			if len(r.URL.RawQuery) > maxQuery {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestURITooLong)
				_, _ = w.Write([]byte(`{"error":"query too long"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
