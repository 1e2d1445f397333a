// Package chat implements the chat proxy use case: validating widget
// messages, forwarding them to the automation webhook and interpreting
// the replies.
package chat

import "errors"

// Sentinel errors for chat use case operations.
var (
	// ErrUpstreamFailed indicates that the webhook did not produce a reply.
	// The wrapped error carries the upstream detail.
	ErrUpstreamFailed = errors.New("failed to get response from AI")
)
