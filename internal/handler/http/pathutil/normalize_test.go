package pathutil

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "root", path: "/", expected: "/"},
		{name: "chat", path: "/api/chat", expected: "/api/chat"},
		{name: "chat alias", path: "/chat", expected: "/chat"},
		{name: "preview", path: "/api/preview", expected: "/api/preview"},
		{name: "preview with trailing slash", path: "/api/preview/", expected: "/api/preview"},
		{name: "classify", path: "/api/preview/classify", expected: "/api/preview/classify"},
		{name: "relay with query", path: "/api/relay?url=https://example.com", expected: "/api/relay"},
		{name: "info", path: "/api/info", expected: "/api/info"},
		{name: "health", path: "/health", expected: "/health"},
		{name: "metrics", path: "/metrics", expected: "/metrics"},
		{name: "scanner", path: "/wp-login.php", expected: OtherRoute},
		{name: "unknown nested", path: "/api/preview/123", expected: OtherRoute},
		{name: "case sensitive", path: "/API/CHAT", expected: OtherRoute},
		{name: "empty", path: "", expected: OtherRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestGetExpectedCardinality(t *testing.T) {
	seen := map[string]bool{}
	for route := range routes {
		seen[NormalizePath(route)] = true
	}
	seen[NormalizePath("/does/not/exist")] = true

	if got := GetExpectedCardinality(); got != len(seen) {
		t.Errorf("GetExpectedCardinality() = %d, want %d", got, len(seen))
	}
}
