package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/net/html/charset"

	"chatwidget/internal/observability/metrics"
	"chatwidget/internal/resilience/circuitbreaker"
	"chatwidget/internal/resilience/retry"
)

// sniffLen is how much of the body is inspected for binary signatures.
const sniffLen = 262

// Page is a fetched HTML document decoded to UTF-8. Pages may be served from
// the fetcher's cache and shared between callers, so they must not be modified.
type Page struct {
	// URL is the final URL after redirects.
	URL *url.URL

	// Header holds the response headers of the final response.
	Header http.Header

	// StatusCode is the status of the final response.
	StatusCode int

	// Body is the document body converted to UTF-8.
	Body []byte
}

// Fetcher retrieves HTML pages for metadata extraction, header probing and the
// cross-origin relay.
//
// Features:
//   - SSRF prevention via URL validation
//   - Circuit breaker for fault tolerance
//   - Size limiting to prevent memory exhaustion
//   - Redirect validation for security
//   - Charset detection and conversion to UTF-8
//   - Short-lived page cache shared by the prober, resolver and relay
//
// Thread safety: Fetcher is safe for concurrent use.
type Fetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         Config
	pages          *expirable.LRU[string, *Page] // nil when caching is disabled
}

// New creates a Fetcher with the given configuration.
//
// Example:
//
//	f := New(DefaultConfig())
//	page, err := f.Fetch(ctx, "https://example.com/about")
func New(config Config) *Fetcher {
	breakerCfg := circuitbreaker.PageFetchConfig()
	breakerCfg.IsSuccessful = func(err error) bool {
		return circuitbreaker.IgnoreClientErrors(err) || isRejection(err)
	}
	f := &Fetcher{
		circuitBreaker: circuitbreaker.New(breakerCfg),
		config:         config,
	}
	if config.PageCacheTTL > 0 && config.PageCacheSize > 0 {
		f.pages = expirable.NewLRU[string, *Page](config.PageCacheSize, nil, config.PageCacheTTL)
	}

	f.client = &http.Client{
		Timeout: 30 * time.Second, // Overall request timeout
		Transport: &http.Transport{
			DialContext:         newDialer(config.DenyPrivateIPs).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}

			// Validate each redirect target for SSRF
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}

			return nil
		},
	}

	return f
}

// isRejection reports errors caused by the requested page rather than by a
// failing upstream.
func isRejection(err error) bool {
	return errors.Is(err, ErrPrivateIP) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrNotHTML) ||
		errors.Is(err, ErrBodyTooLarge) ||
		errors.Is(err, ErrTooManyRedirects)
}

// Fetch retrieves an HTML page.
//
// The fetch process:
//  1. Validates URL for security (SSRF prevention)
//  2. Returns a cached page fetched within PageCacheTTL, if any
//  3. Executes HTTP request through circuit breaker
//  4. Enforces size limit while reading response
//  5. Rejects binary payloads (images, video, archives, documents)
//  6. Converts the body to UTF-8 using the declared or sniffed charset
//
// Only successful fetches are cached.
//
// Errors:
//   - ErrInvalidURL, ErrPrivateIP: URL rejected before any request
//   - ErrTooManyRedirects, ErrBodyTooLarge, ErrTimeout, ErrNotHTML
//   - *retry.HTTPError: non-2xx response
//   - gobreaker.ErrOpenState: Circuit breaker is open (too many failures)
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Page, error) {
	if err := validateURL(urlStr, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}
	if f.pages != nil {
		if page, ok := f.pages.Get(urlStr); ok {
			metrics.RecordPageCacheHit()
			return page, nil
		}
	}

	result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, urlStr)
	})
	if err != nil {
		return nil, err
	}

	page := result.(*Page)
	if f.pages != nil {
		f.pages.Add(urlStr, page)
	}
	return page, nil
}

func (f *Fetcher) doFetch(ctx context.Context, urlStr string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request exceeded deadline", ErrTimeout)
		}
		// Surface redirect validation errors unwrapped
		var urlErr *url.Error
		if errors.As(err, &urlErr) && (errors.Is(urlErr.Err, ErrTooManyRedirects) ||
			errors.Is(urlErr.Err, ErrPrivateIP) || errors.Is(urlErr.Err, ErrInvalidURL)) {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, retry.NewHTTPError(resp, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, fmt.Errorf("%w: content type %q", ErrNotHTML, contentType)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(raw)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response size exceeds limit %d bytes",
			ErrBodyTooLarge, f.config.MaxBodySize)
	}
	metrics.RecordPageFetchSize(len(raw))

	head := raw
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return nil, fmt.Errorf("%w: detected %s", ErrNotHTML, kind.MIME.Value)
	}

	body, err := ToUTF8(raw, contentType)
	if err != nil {
		slog.Debug("charset conversion failed, using raw body",
			slog.String("url", urlStr),
			slog.Any("error", err))
		body = raw
	}

	// The final URL may differ from urlStr after redirects
	finalURL, _ := url.Parse(urlStr)
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return &Page{
		URL:        finalURL,
		Header:     resp.Header,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// isHTMLContentType accepts HTML, XHTML and a missing or generic type.
// Servers that omit the header are sniffed later.
func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain", "application/octet-stream":
		return true
	}
	return strings.HasSuffix(mediaType, "+html")
}

// ToUTF8 converts a page body to UTF-8. The encoding comes from the
// Content-Type charset, then a <meta charset> declaration, then sniffing.
func ToUTF8(raw []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// BreakerState returns the circuit breaker state, e.g. "closed" or "open".
func (f *Fetcher) BreakerState() string {
	return f.circuitBreaker.State().String()
}
