package fetcher

import "errors"

// Sentinel errors for page fetching operations.
// These errors allow callers to distinguish between different failure modes
// and implement appropriate fallback strategies.
var (
	// ErrInvalidURL indicates the URL format is invalid or uses an unsupported scheme.
	// Only http:// and https:// schemes are supported.
	//
	// Example:
	//   - "not-a-url" → ErrInvalidURL
	//   - "file:///etc/passwd" → ErrInvalidURL
	//   - "ftp://example.com" → ErrInvalidURL
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a private IP address.
	// This error prevents Server-Side Request Forgery (SSRF) attacks.
	//
	// Example:
	//   - "http://localhost" → ErrPrivateIP
	//   - "http://192.168.1.1" → ErrPrivateIP
	//   - "http://10.0.0.1" → ErrPrivateIP
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	// ErrTooManyRedirects indicates the redirect chain exceeded the configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	//
	// Example:
	//   - Response is 15MB when max is 10MB → ErrBodyTooLarge
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrNotHTML indicates the response is a binary payload (image, video,
	// archive, document) rather than a page with metadata.
	ErrNotHTML = errors.New("response is not an HTML document")

	// ErrReadabilityFailed indicates readable text extraction failed.
	ErrReadabilityFailed = errors.New("content extraction failed")
)
