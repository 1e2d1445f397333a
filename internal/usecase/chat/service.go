package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/observability/metrics"
)

// Webhook delivers a payload to the automation webhook and returns its reply.
type Webhook interface {
	Send(ctx context.Context, payload any) (json.RawMessage, error)
}

// Service proxies widget messages to the webhook.
type Service struct {
	Webhook Webhook
}

// Send validates req and forwards it verbatim to the webhook.
//
// Returns:
//   - json.RawMessage: the webhook reply, unchanged
//   - error: *entity.ValidationError for a missing field, or an error
//     wrapping ErrUpstreamFailed when the webhook fails
func (s *Service) Send(ctx context.Context, req entity.ChatRequest) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		metrics.RecordChatMessage("invalid")
		return nil, err
	}

	slog.InfoContext(ctx, "forwarding chat message",
		slog.String("domain", req.Domain),
		slog.String("session_id", req.SessionID),
		slog.Int("message_length", len(req.Message)))

	reply, err := s.Webhook.Send(ctx, req)
	if err != nil {
		metrics.RecordChatMessage("error")
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFailed, err)
	}

	metrics.RecordChatMessage("ok")
	slog.InfoContext(ctx, "received chat reply",
		slog.String("domain", req.Domain),
		slog.String("session_id", req.SessionID))
	return reply, nil
}
