// Package metadata resolves the presentation attributes of a web page (title,
// description, preview image, favicon) for metadata cards.
//
// Resolution never fails: when the page cannot be fetched or parsed, a record
// built from the URL's domain is returned instead.
package metadata

import (
	"net/url"
	"strings"

	"chatwidget/internal/domain/entity"
)

const (
	// MaxTitleRunes bounds the card title.
	MaxTitleRunes = 150

	// MaxDescriptionRunes bounds the card description.
	MaxDescriptionRunes = 300

	// faviconService serves a site icon for any domain.
	faviconService = "https://www.google.com/s2/favicons"

	unknownDomain = "unknown"
)

// FaviconServiceURL returns the favicon service URL for domain at 128px.
func FaviconServiceURL(domain string) string {
	return faviconService + "?domain=" + url.QueryEscape(domain) + "&sz=128"
}

// DomainOf returns the lower-cased host of rawURL without a leading "www.".
// Scheme-less input such as "example.com/page" is accepted. Input with no
// recognizable host yields "unknown", so the result is never empty.
func DomainOf(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + s)
	}
	if err == nil {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if host != "" {
			return host
		}
	}
	return unknownDomain
}

// Fallback builds the minimal record used whenever a page cannot be resolved:
// the domain as title, no description, no image and the service favicon.
func Fallback(rawURL string) entity.PageMetadata {
	domain := DomainOf(rawURL)
	return entity.PageMetadata{
		Title:      domain,
		FaviconURL: FaviconServiceURL(domain),
		Domain:     domain,
		URL:        rawURL,
	}
}
