package http

import (
	"net/http"

	"chatwidget/internal/config"
	"chatwidget/internal/handler/http/respond"
)

// InfoResponse is the document embedded widgets bootstrap from.
type InfoResponse struct {
	config.Widget
	Version string `json:"version"`
}

// InfoHandler serves GET /api/info.
type InfoHandler struct {
	Widget  config.Widget
	Version string
}

func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	respond.JSON(w, http.StatusOK, InfoResponse{Widget: h.Widget, Version: h.Version})
}
