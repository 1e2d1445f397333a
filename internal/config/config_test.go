package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, "dev", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.WebhookURL)
	assert.Equal(t, 30*time.Second, cfg.WebhookTimeout)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, 8*time.Second, cfg.MetadataTimeout)
	assert.Equal(t, 512, cfg.MetadataCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.MetadataCacheTTL)
	assert.True(t, cfg.MetadataReadability)
	assert.Equal(t, ProbeModeHeader, cfg.ProbeMode)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.InDelta(t, 2.0, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.InDelta(t, 1.0, cfg.TraceSampleRatio, 1e-9)
	assert.False(t, cfg.CSPReportOnly)
}

func TestFromMap_Overrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"PORT":                 "8080",
		"WEBHOOK_URL":          "https://n8n.example.com/webhook/abc",
		"WEBHOOK_TIMEOUT":      "5s",
		"CORS_ALLOWED_ORIGINS": "https://fab.city,https://example.org",
		"TRUSTED_PROXIES":      "10.0.0.0/8",
		"METADATA_RELAY_URL":   "https://relay.example.com/raw",
		"METADATA_CACHE_SIZE":  "64",
		"PROBE_MODE":           "browser",
		"CHROME_URL":           "ws://127.0.0.1:9222/devtools/browser/x",
		"RATE_LIMIT_RPS":       "0.5",
		"LOG_LEVEL":            "debug",
		"CSP_REPORT_ONLY":      "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://n8n.example.com/webhook/abc", cfg.WebhookURL)
	assert.Equal(t, 5*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, []string{"https://fab.city", "https://example.org"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
	assert.Equal(t, "https://relay.example.com/raw", cfg.MetadataRelayURL)
	assert.Equal(t, 64, cfg.MetadataCacheSize)
	assert.Equal(t, ProbeModeBrowser, cfg.ProbeMode)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/x", cfg.ChromeURL)
	assert.InDelta(t, 0.5, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.CSPReportOnly)
}

func TestFromMap_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"port not a number", map[string]string{"PORT": "http"}, "PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT"},
		{"unparsable duration", map[string]string{"WEBHOOK_TIMEOUT": "soon"}, "failed to parse"},
		{"zero webhook timeout", map[string]string{"WEBHOOK_TIMEOUT": "0s"}, "WEBHOOK_TIMEOUT"},
		{"webhook not http", map[string]string{"WEBHOOK_URL": "ftp://example.com/hook"}, "WEBHOOK_URL"},
		{"relay without host", map[string]string{"METADATA_RELAY_URL": "https://"}, "METADATA_RELAY_URL"},
		{"unknown probe mode", map[string]string{"PROBE_MODE": "magic"}, "PROBE_MODE"},
		{"zero cache", map[string]string{"METADATA_CACHE_SIZE": "0"}, "METADATA_CACHE_SIZE"},
		{"zero cache ttl", map[string]string{"METADATA_CACHE_TTL": "0s"}, "METADATA_CACHE_TTL"},
		{"negative rps", map[string]string{"RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"sample ratio above one", map[string]string{"TRACE_SAMPLE_RATIO": "1.5"}, "TRACE_SAMPLE_RATIO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromMap(tt.vars)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "4000")
	t.Setenv("PROBE_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.ProbeTimeout)
}
