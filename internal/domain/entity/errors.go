package entity

import (
	"errors"
	"fmt"
)

// ErrValidationFailed indicates that validation checks have failed.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError represents a validation error with detailed field information.
// Message is safe to show to the widget user.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
