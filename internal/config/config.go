// Package config loads the API server configuration from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Variables already set in the
// environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Probe modes.
const (
	ProbeModeHeader  = "header"
	ProbeModeBrowser = "browser"
)

// Config holds the API server configuration.
type Config struct {
	// Port is the TCP port the server listens on. Default: 3001
	Port string `env:"PORT" envDefault:"3001"`

	// Version is reported by /health and /api/info. Default: dev
	Version string `env:"VERSION" envDefault:"dev"`

	// LogLevel is one of debug, info, warn, error. Default: info
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// WebhookURL is the automation webhook that answers chat messages.
	// The server starts without it but reports itself unhealthy.
	WebhookURL string `env:"WEBHOOK_URL"`

	// WebhookTimeout bounds one webhook attempt. Default: 30s
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"30s"`

	// CORSAllowedOrigins lists the pages allowed to call the API.
	// Empty or "*" allows any origin.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// TrustedProxies lists CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// MetadataRelayURL switches metadata resolution to a relay that returns
	// page HTML for ?url=. Empty means pages are fetched directly.
	MetadataRelayURL string `env:"METADATA_RELAY_URL"`

	// MetadataTimeout bounds one metadata resolution. Default: 8s
	MetadataTimeout time.Duration `env:"METADATA_TIMEOUT" envDefault:"8s"`

	// MetadataCacheSize is the number of resolved pages kept. Default: 512
	MetadataCacheSize int `env:"METADATA_CACHE_SIZE" envDefault:"512"`

	// MetadataCacheTTL is how long a resolved page stays cached. Default: 10m
	MetadataCacheTTL time.Duration `env:"METADATA_CACHE_TTL" envDefault:"10m"`

	// MetadataReadability fills a missing description from the page text.
	MetadataReadability bool `env:"METADATA_READABILITY" envDefault:"true"`

	// ProbeMode selects the embeddability prober: header or browser.
	ProbeMode string `env:"PROBE_MODE" envDefault:"header"`

	// ProbeTimeout is the budget a page has to prove it can be framed. Default: 3s
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"3s"`

	// EmbedOrigin is the origin of the page hosting the widget, used to
	// evaluate frame-ancestors. Empty treats every ancestor list as foreign.
	EmbedOrigin string `env:"EMBED_ORIGIN"`

	// ChromeBin and ChromeURL locate the browser for the browser prober.
	// ChromeURL attaches to a running instance and wins over ChromeBin.
	ChromeBin string `env:"CHROME_BIN"`
	ChromeURL string `env:"CHROME_URL"`

	// RateLimitRPS is the sustained per-client rate; 0 disables limiting.
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"2"`

	// RateLimitBurst is the per-client burst. Default: 10
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// RequestTimeout bounds preview and relay requests. Default: 15s
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// TraceSampleRatio is the fraction of root traces recorded. Default: 1
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`

	// CSPReportOnly sends the API policy as Content-Security-Policy-Report-Only.
	CSPReportOnly bool `env:"CSP_REPORT_ONLY" envDefault:"false"`

	// WidgetConfigPath points to the widget YAML served by /api/info.
	WidgetConfigPath string `env:"WIDGET_CONFIG_PATH"`
}

// Load reads .env if present, then parses and validates the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses and validates configuration from the given variables
// instead of the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %q", c.Port)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	if c.WebhookURL != "" {
		if err := validateHTTPURL(c.WebhookURL); err != nil {
			return fmt.Errorf("WEBHOOK_URL %w", err)
		}
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive")
	}

	if c.MetadataRelayURL != "" {
		if err := validateHTTPURL(c.MetadataRelayURL); err != nil {
			return fmt.Errorf("METADATA_RELAY_URL %w", err)
		}
	}
	if c.MetadataTimeout <= 0 {
		return fmt.Errorf("METADATA_TIMEOUT must be positive")
	}
	if c.MetadataCacheSize <= 0 {
		return fmt.Errorf("METADATA_CACHE_SIZE must be positive")
	}
	if c.MetadataCacheTTL <= 0 {
		return fmt.Errorf("METADATA_CACHE_TTL must be positive")
	}

	if c.ProbeMode != ProbeModeHeader && c.ProbeMode != ProbeModeBrowser {
		return fmt.Errorf("PROBE_MODE must be %q or %q, got %q", ProbeModeHeader, ProbeModeBrowser, c.ProbeMode)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be positive")
	}

	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS cannot be negative")
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST cannot be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0.0 and 1.0")
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is malformed: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("must have a host")
	}
	return nil
}
