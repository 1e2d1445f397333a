package entity

import (
	"errors"
	"net"
	"strings"
	"testing"
)

func TestValidatePreviewURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://example.com/about"},
		{name: "valid http URL", url: "http://example.com/"},
		{name: "valid URL with port", url: "https://example.com:8080/page"},
		{name: "valid URL with query", url: "https://example.com/page?param=value"},
		{name: "empty URL", url: "", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/file", wantErr: true},
		{name: "javascript scheme", url: "javascript:alert(1)", wantErr: true},
		{name: "relative URL", url: "/about", wantErr: true},
		{name: "no host", url: "https:///path", wantErr: true},
		{name: "malformed", url: "https://[::1", wantErr: true},
		{name: "loopback literal", url: "http://127.0.0.1:8080/", wantErr: true},
		{name: "metadata endpoint", url: "http://169.254.169.254/latest/meta-data", wantErr: true},
		{name: "private network literal", url: "http://10.1.2.3/", wantErr: true},
		{name: "ipv6 loopback", url: "http://[::1]/", wantErr: true},
		{name: "public literal", url: "http://93.184.216.34/"},
		{name: "too long", url: "https://example.com/" + strings.Repeat("a", maxURLLength), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePreviewURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePreviewURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("ValidatePreviewURL(%q) error type = %T, want *ValidationError", tt.url, err)
			} else if ve.Field != "url" {
				t.Errorf("field = %q, want url", ve.Field)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.0.0.1", true},
		{"172.16.5.4", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"::1", true},
		{"fe80::1", true},
		{"0.0.0.0", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		if got := isPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
			t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}
