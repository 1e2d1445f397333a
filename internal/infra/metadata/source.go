package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatwidget/internal/infra/fetcher"
	"chatwidget/internal/resilience/circuitbreaker"
	"chatwidget/internal/resilience/retry"
)

// PageSource retrieves the HTML of a page for metadata extraction.
type PageSource interface {
	// Name labels the source in logs and metrics.
	Name() string

	// Fetch returns the page decoded to UTF-8.
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

// DirectSource fetches pages itself through the SSRF-safe fetcher. It is used
// when the service runs where cross-origin restrictions do not apply.
type DirectSource struct {
	fetcher *fetcher.Fetcher
}

// NewDirectSource wraps f as a PageSource.
func NewDirectSource(f *fetcher.Fetcher) *DirectSource {
	return &DirectSource{fetcher: f}
}

// Name implements PageSource.
func (s *DirectSource) Name() string { return "direct" }

// Fetch implements PageSource.
func (s *DirectSource) Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error) {
	return s.fetcher.Fetch(ctx, rawURL)
}

// RelaySource fetches pages through a cross-origin relay endpoint:
// GET {base}?url={encoded page URL}. The relay must answer with the page HTML.
type RelaySource struct {
	base        string
	client      *http.Client
	breaker     *circuitbreaker.CircuitBreaker
	retry       retry.Config
	maxBodySize int64
}

// NewRelaySource creates a RelaySource for the relay at base.
//
// Returns an error if base is not an absolute http(s) URL.
func NewRelaySource(base string, maxBodySize int64) (*RelaySource, error) {
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: relay base %q", fetcher.ErrInvalidURL, base)
	}
	return &RelaySource{
		base:        base,
		client:      &http.Client{Timeout: 30 * time.Second},
		breaker:     circuitbreaker.New(circuitbreaker.RelayConfig()),
		retry:       retry.PageFetchConfig(),
		maxBodySize: maxBodySize,
	}, nil
}

// Name implements PageSource.
func (s *RelaySource) Name() string { return "relay" }

// RelayURL returns the relay request URL for a page.
func (s *RelaySource) RelayURL(rawURL string) string {
	sep := "?"
	if strings.Contains(s.base, "?") {
		sep = "&"
	}
	return s.base + sep + "url=" + url.QueryEscape(rawURL)
}

// Fetch implements PageSource. Transient relay failures (5xx, 429, network
// timeouts) are retried with backoff inside the caller's deadline.
func (s *RelaySource) Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error) {
	relayURL := s.RelayURL(rawURL)

	var page *fetcher.Page
	err := retry.WithBackoff(ctx, s.retry, func() error {
		result, err := s.breaker.Execute(func() (interface{}, error) {
			return s.do(ctx, relayURL, rawURL)
		})
		if err != nil {
			return err
		}
		page = result.(*fetcher.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *RelaySource) do(ctx context.Context, relayURL, rawURL string) (*fetcher.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, retry.NewHTTPError(resp, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read relay body: %w", err)
	}
	if int64(len(raw)) > s.maxBodySize {
		return nil, fmt.Errorf("%w: relay response exceeds %d bytes", fetcher.ErrBodyTooLarge, s.maxBodySize)
	}

	body, err := fetcher.ToUTF8(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		body = raw
	}

	pageURL, _ := url.Parse(rawURL)
	return &fetcher.Page{
		URL:        pageURL,
		Header:     resp.Header,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
