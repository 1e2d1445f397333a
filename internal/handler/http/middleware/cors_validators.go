package middleware

import (
	"strings"
)

// OriginValidator decides which Origin headers receive CORS headers.
type OriginValidator interface {
	IsAllowed(origin string) bool
	GetAllowedOrigins() []string
}

// WhitelistValidator allows an exact, case-insensitive list of origins.
type WhitelistValidator struct {
	allowedOrigins []string
}

// NewWhitelistValidator normalizes origins (trimmed, lower-cased, no trailing
// slash) and drops empty entries.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin = normalizeOrigin(origin); origin != "" {
			normalized = append(normalized, origin)
		}
	}
	return &WhitelistValidator{allowedOrigins: normalized}
}

// IsAllowed implements OriginValidator.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	for _, allowed := range v.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// GetAllowedOrigins returns a copy of the whitelist.
func (v *WhitelistValidator) GetAllowedOrigins() []string {
	out := make([]string, len(v.allowedOrigins))
	copy(out, v.allowedOrigins)
	return out
}

// AnyOriginValidator admits every origin. The widget is embedded on arbitrary
// third-party sites, so this is the default.
type AnyOriginValidator struct{}

// IsAllowed implements OriginValidator.
func (AnyOriginValidator) IsAllowed(origin string) bool { return origin != "" }

// GetAllowedOrigins implements OriginValidator.
func (AnyOriginValidator) GetAllowedOrigins() []string { return []string{"*"} }

// NewOriginValidator returns AnyOriginValidator when origins is empty or
// contains "*", and a WhitelistValidator otherwise.
func NewOriginValidator(origins []string) OriginValidator {
	if len(origins) == 0 {
		return AnyOriginValidator{}
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return AnyOriginValidator{}
		}
	}
	return NewWhitelistValidator(origins)
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}
