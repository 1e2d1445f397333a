package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != "" {
		t.Errorf("FromContext(empty) = %q, want empty", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := FromContext(ctx); got != "req-1" {
		t.Errorf("FromContext() = %q, want req-1", got)
	}
	wrongType := context.WithValue(context.Background(), RequestIDKey, 42)
	if got := FromContext(wrongType); got != "" {
		t.Errorf("FromContext(non-string) = %q, want empty", got)
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantEcho bool
	}{
		{name: "propagates valid id", header: "widget-1697040000000:abc_DEF.9", wantEcho: true},
		{name: "generates when missing", header: ""},
		{name: "replaces id with spaces", header: "hello world"},
		{name: "replaces id with newline", header: "abc\r\nX-Injected: 1"},
		{name: "replaces overlong id", header: strings.Repeat("a", maxIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = FromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
			if tt.header != "" {
				req.Header[RequestIDHeader] = []string{tt.header}
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got := rr.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("response header %q != context id %q", got, seen)
			}
			if tt.wantEcho {
				if seen != tt.header {
					t.Errorf("id = %q, want %q", seen, tt.header)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("generated id %q is not a UUID: %v", seen, err)
			}
		})
	}
}

func TestMiddleware_UniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[FromContext(r.Context())] = true
	}))
	for i := 0; i < 50; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}
	if len(ids) != 50 {
		t.Errorf("got %d distinct ids, want 50", len(ids))
	}
}

func TestIsValid(t *testing.T) {
	if IsValid(strings.Repeat("a", maxIDLength)) != true {
		t.Error("id at the length limit should be valid")
	}
	if IsValid("ünicode") {
		t.Error("non-ASCII id should be invalid")
	}
}
