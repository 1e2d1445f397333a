package preview

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"

	"chatwidget/internal/handler/http/respond"
	"chatwidget/internal/infra/fetcher"
	"chatwidget/internal/resilience/retry"
	"chatwidget/pkg/security/csp"
)

// PageFetcher retrieves an HTML page on behalf of the browser.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// RelayHandler answers GET /api/relay?url= with the page's HTML so that
// browser-side metadata extraction can read pages it cannot fetch
// cross-origin. The relayed document is served inert.
type RelayHandler struct{ Pages PageFetcher }

func (h RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if !validURL(w, raw) {
		return
	}

	page, err := h.Pages.Fetch(r.Context(), raw)
	if err != nil {
		respond.SafeError(w, http.StatusBadGateway, relayError(err))
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	policy := csp.RelayPolicy()
	hdr.Set(policy.HeaderName(), policy.Build())
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Cache-Control", "public, max-age=300")
	if page.URL != nil {
		hdr.Set("X-Final-Url", page.URL.String())
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page.Body)
}

func relayError(err error) *respond.AppError {
	var httpErr *retry.HTTPError
	switch {
	case errors.Is(err, fetcher.ErrInvalidURL), errors.Is(err, fetcher.ErrPrivateIP):
		return respond.NewAppError(http.StatusBadRequest, "URL is not allowed", err)
	case errors.Is(err, fetcher.ErrNotHTML):
		return respond.NewAppError(http.StatusUnsupportedMediaType, "URL does not point to an HTML page", err)
	case errors.Is(err, fetcher.ErrBodyTooLarge):
		return respond.NewAppError(http.StatusRequestEntityTooLarge, "page is too large to relay", err)
	case errors.Is(err, fetcher.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return respond.NewAppError(http.StatusGatewayTimeout, "page took too long to respond", err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return respond.NewAppError(http.StatusServiceUnavailable, "relay is temporarily unavailable", err)
	case errors.As(err, &httpErr):
		return respond.NewAppError(http.StatusBadGateway, "page responded with an error", err)
	default:
		return respond.NewAppError(http.StatusBadGateway, "failed to fetch page", err)
	}
}
