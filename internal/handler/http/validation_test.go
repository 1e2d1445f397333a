package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		maxQuery    int
		wantStatus  int
		wantReached bool
		wantError   string
	}{
		{
			name:        "ordinary preview request",
			target:      "/api/preview?url=https%3A%2F%2Fexample.com%2F",
			wantStatus:  http.StatusOK,
			wantReached: true,
		},
		{
			name:        "path at limit",
			target:      "/" + strings.Repeat("a", maxPathLength-1),
			wantStatus:  http.StatusOK,
			wantReached: true,
		},
		{
			name:       "path over limit",
			target:     "/" + strings.Repeat("a", maxPathLength),
			wantStatus: http.StatusRequestURITooLong,
			wantError:  "URI too long",
		},
		{
			name:        "query at default limit",
			target:      "/api/relay?" + strings.Repeat("q", DefaultMaxQueryLength),
			wantStatus:  http.StatusOK,
			wantReached: true,
		},
		{
			name:       "query over default limit",
			target:     "/api/relay?" + strings.Repeat("q", DefaultMaxQueryLength+1),
			wantStatus: http.StatusRequestURITooLong,
			wantError:  "query too long",
		},
		{
			name:       "custom query limit",
			target:     "/api/relay?url=https://example.com",
			maxQuery:   8,
			wantStatus: http.StatusRequestURITooLong,
			wantError:  "query too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			InputValidation(tt.maxQuery)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if reached != tt.wantReached {
				t.Errorf("handler reached = %v, want %v", reached, tt.wantReached)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantError != "" {
				if !strings.Contains(rec.Body.String(), tt.wantError) {
					t.Errorf("expected error %q, got '%s'", tt.wantError, rec.Body.String())
				}
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected Content-Type application/json, got '%s'", ct)
				}
			}
		})
	}
}
