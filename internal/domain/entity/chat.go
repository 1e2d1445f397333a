package entity

import "strings"

// maxMessageLength bounds a single chat message forwarded to the webhook.
const maxMessageLength = 4000

// ChatRequest is the body the widget posts to the chat route.
// All three fields are required.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Domain    string `json:"domain"`
}

// Validate checks the request in the order the widget fills it in.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &ValidationError{Field: "message", Message: "Message is required"}
	}
	if len(r.Message) > maxMessageLength {
		return &ValidationError{Field: "message", Message: "Message is too long"}
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return &ValidationError{Field: "sessionId", Message: "Session ID is required"}
	}
	if strings.TrimSpace(r.Domain) == "" {
		return &ValidationError{Field: "domain", Message: "Domain is required"}
	}
	return nil
}
