package chat

import (
	"net/http"

	chatUC "chatwidget/internal/usecase/chat"
)

// Register mounts the chat proxy. The widget posts to /api/chat; /chat is the
// older path still used by embedded copies of the widget.
func Register(mux *http.ServeMux, svc *chatUC.Service, limit func(http.Handler) http.Handler) {
	h := limit(SendHandler{Svc: svc})
	mux.Handle("POST /api/chat", h)
	mux.Handle("POST /chat", h)
}
