// Package probe implements embeddability probers for the preview renderer.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"chatwidget/internal/infra/fetcher"
	"chatwidget/internal/usecase/preview"
)

// PageFetcher retrieves a page with its response headers.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

// HeaderProber decides embeddability server-side: the page must answer 2xx
// and its framing headers must admit the widget origin. Unlike a hidden frame
// it sees X-Frame-Options and CSP frame-ancestors refusals.
type HeaderProber struct {
	fetcher     PageFetcher
	embedOrigin *url.URL
}

// NewHeaderProber creates a HeaderProber. embedOrigin is the origin of the
// page hosting the widget (e.g. "https://fab.city"); empty means unknown, in
// which case only policies open to every origin pass.
func NewHeaderProber(f PageFetcher, embedOrigin string) (*HeaderProber, error) {
	p := &HeaderProber{fetcher: f}
	if embedOrigin != "" {
		u, err := url.Parse(embedOrigin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid embed origin %q", embedOrigin)
		}
		p.embedOrigin = u
	}
	return p, nil
}

// ProbeEmbed implements preview.Prober.
func (p *HeaderProber) ProbeEmbed(ctx context.Context, embedURL string) (bool, error) {
	page, err := p.fetcher.Fetch(ctx, embedURL)
	if err != nil {
		return false, err
	}
	if err := FrameAllowed(page.Header, page.URL, p.embedOrigin); err != nil {
		return false, err
	}
	return true, nil
}

// FrameAllowed reports whether a response with header, served from pageURL,
// may be framed by a document at embedOrigin. A CSP frame-ancestors directive
// takes precedence over X-Frame-Options, as in current browsers.
//
// Returns nil when framing is allowed, or an error wrapping
// preview.ErrFrameBlocked naming the refusing header.
func FrameAllowed(header http.Header, pageURL, embedOrigin *url.URL) error {
	if sources, ok := frameAncestors(header); ok {
		for _, src := range sources {
			if sourceMatches(src, pageURL, embedOrigin) {
				return nil
			}
		}
		return fmt.Errorf("%w: frame-ancestors %s", preview.ErrFrameBlocked, strings.Join(sources, " "))
	}

	for _, v := range header.Values("X-Frame-Options") {
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "DENY":
			return fmt.Errorf("%w: X-Frame-Options DENY", preview.ErrFrameBlocked)
		case "SAMEORIGIN":
			if !sameOrigin(pageURL, embedOrigin) {
				return fmt.Errorf("%w: X-Frame-Options SAMEORIGIN", preview.ErrFrameBlocked)
			}
		}
		// ALLOW-FROM is obsolete and ignored by browsers
	}
	return nil
}

// frameAncestors returns the sources of the first frame-ancestors directive
// across all Content-Security-Policy headers.
func frameAncestors(header http.Header) ([]string, bool) {
	for _, value := range header.Values("Content-Security-Policy") {
		for _, policy := range strings.Split(value, ",") {
			for _, directive := range strings.Split(policy, ";") {
				fields := strings.Fields(directive)
				if len(fields) == 0 || !strings.EqualFold(fields[0], "frame-ancestors") {
					continue
				}
				return fields[1:], true
			}
		}
	}
	return nil, false
}

// sourceMatches matches one CSP source expression against the embedding origin.
func sourceMatches(src string, pageURL, embedOrigin *url.URL) bool {
	src = strings.ToLower(src)
	switch src {
	case "'none'":
		return false
	case "*":
		return true
	case "'self'":
		return sameOrigin(pageURL, embedOrigin)
	}
	if embedOrigin == nil {
		return false
	}

	// scheme-source, e.g. "https:"
	if strings.HasSuffix(src, ":") && !strings.Contains(src, "/") {
		return strings.TrimSuffix(src, ":") == embedOrigin.Scheme
	}

	scheme, hostPort, hasScheme := strings.Cut(src, "://")
	if !hasScheme {
		hostPort = scheme
		scheme = ""
	}
	if scheme != "" && scheme != embedOrigin.Scheme {
		return false
	}
	if i := strings.IndexByte(hostPort, '/'); i >= 0 {
		hostPort = hostPort[:i]
	}

	host, port, hasPort := strings.Cut(hostPort, ":")
	if hasPort && port != "*" && port != effectivePort(embedOrigin) {
		return false
	}
	if !hasPort && scheme != "" && effectivePort(embedOrigin) != defaultPort(scheme) {
		return false
	}

	target := strings.ToLower(embedOrigin.Hostname())
	if rest, ok := strings.CutPrefix(host, "*."); ok {
		return strings.HasSuffix(target, "."+rest)
	}
	return host == target
}

func sameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Scheme == b.Scheme &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	return defaultPort(u.Scheme)
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
