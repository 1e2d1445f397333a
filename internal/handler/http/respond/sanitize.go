package respond

import (
	"regexp"
)

var (
	// Automation platforms authenticate webhooks by an unguessable path segment.
	webhookPathPattern = regexp.MustCompile(`(/webhook(?:-test)?/)[^/\s?"']+`)
	// user:password@ in any URL.
	userinfoPattern = regexp.MustCompile(`://([^:/@\s]+):([^@/\s]+)@`)
	// Query parameters that commonly carry credentials.
	secretParamPattern = regexp.MustCompile(`(?i)([?&](?:token|key|api_key|apikey|secret|signature|sig|access_token)=)[^&\s"':]+`)
	bearerPattern      = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._~+/=-]+`)
)

// SanitizeError returns err's message with webhook tokens, URL credentials and
// secret query parameters masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = webhookPathPattern.ReplaceAllString(msg, "${1}****")
	msg = userinfoPattern.ReplaceAllString(msg, "://$1:****@")
	msg = secretParamPattern.ReplaceAllString(msg, "${1}****")
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	return msg
}
