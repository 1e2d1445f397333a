package metadata

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"chatwidget/internal/domain/entity"
)

// textPolicy strips every tag from scraped values. Safe for concurrent use.
var textPolicy = bluemonday.StrictPolicy()

// Extract parses an HTML document and fills a PageMetadata record.
//
// Field priority:
//   - title: og:title, twitter:title, <title>, then the domain
//   - description: og:description, twitter:description, meta description
//   - image: og:image, twitter:image (resolved against pageURL)
//   - favicon: declared icon link (resolved against pageURL), then the favicon service;
//     a declared icon carries the service URL as its load-failure fallback
//
// Parameters:
//   - body: UTF-8 HTML
//   - pageURL: URL the document was served from; may be nil
//   - rawURL: URL the user asked for, copied into the record
//
// Returns an error only if the document cannot be read at all.
func Extract(body []byte, pageURL *url.URL, rawURL string) (entity.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return entity.PageMetadata{}, fmt.Errorf("parse html: %w", err)
	}

	domain := DomainOf(rawURL)
	meta := collectMeta(doc)

	md := entity.PageMetadata{
		Title: firstClean(MaxTitleRunes,
			meta["og:title"],
			meta["twitter:title"],
			doc.Find("head title").First().Text(),
			doc.Find("title").First().Text(),
		),
		Description: firstClean(MaxDescriptionRunes,
			meta["og:description"],
			meta["twitter:description"],
			meta["description"],
		),
		ImageURL: firstAbsolute(pageURL,
			meta["og:image"],
			meta["og:image:url"],
			meta["og:image:secure_url"],
			meta["twitter:image"],
			meta["twitter:image:src"],
		),
		FaviconURL: firstAbsolute(pageURL, declaredIcons(doc)...),
		Domain:     domain,
		URL:        rawURL,
	}

	if md.Title == "" {
		md.Title = domain
	}
	if md.FaviconURL == "" {
		md.FaviconURL = FaviconServiceURL(domain)
	} else {
		md.FaviconFallbackURL = FaviconServiceURL(domain)
	}
	return md, nil
}

// collectMeta maps lower-cased meta property/name keys to their first
// non-empty content.
func collectMeta(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok || key == "" {
			key, _ = s.Attr("name")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if key == "" || content == "" {
			return
		}
		if _, seen := meta[key]; !seen {
			meta[key] = content
		}
	})
	return meta
}

// declaredIcons returns icon hrefs in preference order: rel="icon" (including
// "shortcut icon") before apple-touch-icon variants.
func declaredIcons(doc *goquery.Document) []string {
	var icons, touch []string
	doc.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		for _, rel := range strings.Fields(strings.ToLower(s.AttrOr("rel", ""))) {
			switch rel {
			case "icon":
				icons = append(icons, href)
				return
			case "apple-touch-icon", "apple-touch-icon-precomposed":
				touch = append(touch, href)
				return
			}
		}
	})
	return append(icons, touch...)
}

// firstClean returns the first candidate that is non-empty after cleaning.
func firstClean(maxRunes int, candidates ...string) string {
	for _, c := range candidates {
		if v := cleanText(c, maxRunes); v != "" {
			return v
		}
	}
	return ""
}

// cleanText strips markup, decodes entities, collapses whitespace and cuts
// the result to maxRunes.
func cleanText(s string, maxRunes int) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	return truncateRunes(s, maxRunes)
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(r[:maxRunes]))
}

// firstAbsolute returns the first candidate that resolves to an http(s) URL.
func firstAbsolute(base *url.URL, candidates ...string) string {
	for _, c := range candidates {
		if abs := absoluteURL(base, c); abs != "" {
			return abs
		}
	}
	return ""
}

func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
