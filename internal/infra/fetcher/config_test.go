package fetcher_test

import (
	"testing"
	"time"

	"chatwidget/internal/infra/fetcher"
)

func TestDefaultConfig(t *testing.T) {
	cfg := fetcher.DefaultConfig()

	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected Timeout=10s, got %v", cfg.Timeout)
	}

	if cfg.MaxBodySize != 5*1024*1024 {
		t.Errorf("expected MaxBodySize=5MB, got %d", cfg.MaxBodySize)
	}

	if cfg.MaxRedirects != 5 {
		t.Errorf("expected MaxRedirects=5, got %d", cfg.MaxRedirects)
	}

	if !cfg.DenyPrivateIPs {
		t.Error("expected DenyPrivateIPs=true by default (security)")
	}

	if cfg.UserAgent == "" {
		t.Error("expected a default User-Agent")
	}

	if cfg.PageCacheTTL != 30*time.Second || cfg.PageCacheSize != 64 {
		t.Errorf("expected a 30s/64 page cache, got %v/%d", cfg.PageCacheTTL, cfg.PageCacheSize)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcher.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*fetcher.Config) {}},
		{name: "zero timeout", mutate: func(c *fetcher.Config) { c.Timeout = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *fetcher.Config) { c.Timeout = -time.Second }, wantErr: true},
		{name: "body size too small", mutate: func(c *fetcher.Config) { c.MaxBodySize = 512 }, wantErr: true},
		{name: "body size too large", mutate: func(c *fetcher.Config) { c.MaxBodySize = 200 * 1024 * 1024 }, wantErr: true},
		{name: "body size at minimum", mutate: func(c *fetcher.Config) { c.MaxBodySize = 1024 }},
		{name: "negative redirects", mutate: func(c *fetcher.Config) { c.MaxRedirects = -1 }, wantErr: true},
		{name: "too many redirects", mutate: func(c *fetcher.Config) { c.MaxRedirects = 11 }, wantErr: true},
		{name: "no redirects", mutate: func(c *fetcher.Config) { c.MaxRedirects = 0 }},
		{name: "empty user agent", mutate: func(c *fetcher.Config) { c.UserAgent = "" }, wantErr: true},
		{name: "cache disabled", mutate: func(c *fetcher.Config) { c.PageCacheTTL = 0 }},
		{name: "negative cache ttl", mutate: func(c *fetcher.Config) { c.PageCacheTTL = -time.Second }, wantErr: true},
		{name: "negative cache size", mutate: func(c *fetcher.Config) { c.PageCacheSize = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}

	if cfg != fetcher.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "4s")
	t.Setenv("FETCH_MAX_BODY_SIZE", "1048576")
	t.Setenv("FETCH_MAX_REDIRECTS", "2")
	t.Setenv("FETCH_DENY_PRIVATE_IPS", "false")
	t.Setenv("FETCH_USER_AGENT", "TestAgent/2.0")

	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}

	if cfg.Timeout != 4*time.Second {
		t.Errorf("expected Timeout=4s, got %v", cfg.Timeout)
	}
	if cfg.MaxBodySize != 1048576 {
		t.Errorf("expected MaxBodySize=1048576, got %d", cfg.MaxBodySize)
	}
	if cfg.MaxRedirects != 2 {
		t.Errorf("expected MaxRedirects=2, got %d", cfg.MaxRedirects)
	}
	if cfg.DenyPrivateIPs {
		t.Error("expected DenyPrivateIPs=false")
	}
	if cfg.UserAgent != "TestAgent/2.0" {
		t.Errorf("expected UserAgent=TestAgent/2.0, got %q", cfg.UserAgent)
	}
}

func TestLoadConfigFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "FETCH_TIMEOUT", value: "soon"},
		{name: "bad integer", key: "FETCH_MAX_REDIRECTS", value: "many"},
		{name: "fails validation", key: "FETCH_MAX_REDIRECTS", value: "50"},
		{name: "bad bool", key: "FETCH_DENY_PRIVATE_IPS", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := fetcher.LoadConfigFromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
