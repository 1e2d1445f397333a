package preview

import (
	"net/http"

	"chatwidget/internal/handler/http/respond"
	previewUC "chatwidget/internal/usecase/preview"
)

// ResolveHandler answers GET /api/preview?url= with the view the widget
// should settle on for the link.
type ResolveHandler struct{ Svc *previewUC.Service }

func (h ResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if !validURL(w, raw) {
		return
	}
	respond.JSON(w, http.StatusOK, h.Svc.Resolve(r.Context(), raw))
}
