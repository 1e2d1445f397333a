package preview

import (
	"net/http"

	previewUC "chatwidget/internal/usecase/preview"
)

// Register mounts the preview endpoints. Resolution and relay make outbound
// requests, so they sit behind the rate limiter and the timeout.
func Register(mux *http.ServeMux, svc *previewUC.Service, pages PageFetcher,
	limit, timeout func(http.Handler) http.Handler) {
	mux.Handle("GET /api/preview/classify", ClassifyHandler{Svc: svc})
	mux.Handle("GET /api/preview", limit(timeout(ResolveHandler{Svc: svc})))
	mux.Handle("GET /api/relay", limit(timeout(RelayHandler{Pages: pages})))
}
