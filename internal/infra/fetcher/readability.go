package fetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Excerpt extracts a short readable summary of a page using the Mozilla
// Readability algorithm. It is the last resort for pages that declare no
// description meta tags.
//
// Returns:
//   - string: the article excerpt, or the start of its text content
//   - error: ErrReadabilityFailed if no readable content was found
func Excerpt(page *Page, maxRunes int) (string, error) {
	pageURL := page.URL
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(page.Body), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}

	text := strings.TrimSpace(article.Excerpt)
	if text == "" {
		text = strings.TrimSpace(article.TextContent)
	}
	if text == "" {
		return "", fmt.Errorf("%w: no readable content found", ErrReadabilityFailed)
	}

	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); maxRunes > 0 && len(r) > maxRunes {
		text = string(r[:maxRunes])
	}
	return text, nil
}
