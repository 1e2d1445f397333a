// Package pathutil maps request paths to bounded metric labels.
package pathutil

import (
	"strings"
)

// OtherRoute is the label for every path that is not a registered route.
const OtherRoute = "/other"

// routes are the paths served by the API. Anything else, typically scanners
// probing for well-known files, collapses into OtherRoute.
var routes = map[string]struct{}{
	"/":                     {},
	"/chat":                 {},
	"/api/chat":             {},
	"/api/info":             {},
	"/api/preview":          {},
	"/api/preview/classify": {},
	"/api/relay":            {},
	"/health":               {},
	"/live":                 {},
	"/ready":                {},
	"/metrics":              {},
}

// NormalizePath returns the route label for path.
//
//	NormalizePath("/api/chat")          // "/api/chat"
//	NormalizePath("/api/preview/")      // "/api/preview"
//	NormalizePath("/api/relay?url=x")   // "/api/relay"
//	NormalizePath("/wp-login.php")      // "/other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if _, ok := routes[path]; ok {
		return path
	}
	return OtherRoute
}

// GetExpectedCardinality returns the number of distinct labels NormalizePath
// can produce.
func GetExpectedCardinality() int {
	return len(routes) + 1
}
