package preview

import (
	"errors"
	"net/http"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/handler/http/respond"
	previewUC "chatwidget/internal/usecase/preview"
)

const maxClassifyLength = 2048

// ClassifyHandler answers GET /api/preview/classify?url=. Classification is
// pure, so any non-empty string is accepted, relative paths included.
type ClassifyHandler struct{ Svc *previewUC.Service }

func (h ClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	switch {
	case raw == "":
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "URL is required"})
		return
	case len(raw) > maxClassifyLength:
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "URL is too long"})
		return
	}
	respond.JSON(w, http.StatusOK, h.Svc.Classify(raw))
}

// validURL writes 400 with the validation message when raw cannot be
// fetched server-side.
func validURL(w http.ResponseWriter, raw string) bool {
	err := entity.ValidatePreviewURL(raw)
	if err == nil {
		return true
	}
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message})
	} else {
		respond.SafeError(w, http.StatusBadRequest, err)
	}
	return false
}
