package chat

// ErrorDTO is the error body the widget understands.
type ErrorDTO struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
