package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_Wildcard(t *testing.T) {
	cfg := DefaultCORSConfig([]string{"*"}, quietLogger())

	var called bool
	handler := CORS(cfg)(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://any-site.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !called {
		t.Fatal("next handler was not called")
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("wildcard policy must not allow credentials, got %q", got)
	}
	if got := rr.Header().Get("Vary"); got != "" {
		t.Errorf("Vary = %q, want empty for wildcard", got)
	}
}

func TestCORS_Whitelist(t *testing.T) {
	cfg := DefaultCORSConfig([]string{"https://fab.city", "http://localhost:3000/"}, quietLogger())

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allowed origin is echoed", "https://fab.city", "https://fab.city"},
		{"trailing slash in config", "http://localhost:3000", "http://localhost:3000"},
		{"disallowed origin", "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := CORS(cfg)(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/api/preview?url=x", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !called {
				t.Error("next handler must run for actual requests")
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin != "" && rr.Header().Get("Vary") != "Origin" {
				t.Errorf("Vary = %q, want Origin", rr.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	cfg := DefaultCORSConfig(nil, quietLogger())

	var called bool
	handler := CORS(cfg)(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://fab.city")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if called {
		t.Error("preflight must not reach the next handler")
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-Request-ID" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Access-Control-Max-Age = %q", got)
	}
}

func TestCORS_NoOrigin(t *testing.T) {
	var called bool
	handler := CORS(DefaultCORSConfig(nil, quietLogger()))(okHandler(&called))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Error("same-origin request must pass through")
	}
	if len(rr.Header().Values("Access-Control-Allow-Origin")) != 0 {
		t.Error("no CORS headers expected without Origin")
	}
}

func TestCORS_DisallowedPreflightFallsThrough(t *testing.T) {
	cfg := DefaultCORSConfig([]string{"https://fab.city"}, quietLogger())
	var called bool
	handler := CORS(cfg)(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !called {
		t.Error("disallowed preflight is handed to the mux")
	}
	if rr.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Error("disallowed origin must not receive preflight headers")
	}
}
