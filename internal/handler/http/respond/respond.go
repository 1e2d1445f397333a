// Package respond writes JSON responses and turns errors into messages that
// are safe to show to widget users.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Raw writes an already encoded JSON document.
func Raw(w http.ResponseWriter, code int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		slog.Default().Debug("failed to write JSON response", slog.Any("error", err))
	}
}

// Error writes {"error": err.Error()}.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safeFragments mark messages that describe the caller's own input.
var safeFragments = []string{
	"required",
	"invalid",
	"malformed",
	"not found",
	"must be",
	"cannot be",
	"too long",
	"too short",
	"not allowed",
	"unsupported",
}

// SafeError writes err for 4xx validation-style failures and a generic
// message otherwise. An *AppError always answers with its user message.
// Hidden details are logged with secrets masked.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			slog.Default().Error("application error",
				slog.String("status", http.StatusText(appErr.Code)),
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		JSON(w, appErr.Code, map[string]string{"error": appErr.UserMsg})
		return
	}

	msg := err.Error()
	if code < http.StatusInternalServerError && isSafeMessage(msg) {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

func isSafeMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, fragment := range safeFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// AppError carries a user-facing message alongside the internal cause.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

// Error implements error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

// Unwrap returns the internal cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError returns an AppError.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}
