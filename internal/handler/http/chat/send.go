package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/handler/http/respond"
	"chatwidget/internal/observability/logging"
	chatUC "chatwidget/internal/usecase/chat"
)

// SendHandler forwards one widget message to the automation webhook and
// relays the webhook's JSON reply.
type SendHandler struct{ Svc *chatUC.Service }

func (h SendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.JSON(w, http.StatusRequestEntityTooLarge, ErrorDTO{Error: "Request body is too large"})
			return
		}
		respond.JSON(w, http.StatusBadRequest, ErrorDTO{Error: "Invalid JSON body"})
		return
	}

	reply, err := h.Svc.Send(r.Context(), req)
	if err != nil {
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			respond.JSON(w, http.StatusBadRequest, ErrorDTO{Error: ve.Message})
			return
		}
		msg := respond.SanitizeError(err)
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "chat webhook failed",
			slog.String("session_id", req.SessionID),
			slog.String("error", msg))
		respond.JSON(w, http.StatusInternalServerError, ErrorDTO{
			Error:   "Failed to get response from AI",
			Message: msg,
		})
		return
	}

	respond.Raw(w, http.StatusOK, reply)
}
