package middleware

import (
	"net/http"
	"strings"

	"chatwidget/pkg/security/csp"
)

// CSPConfig selects the Content-Security-Policy applied to each response.
type CSPConfig struct {
	// DefaultPolicy applies when no path prefix matches. Nil disables the header.
	DefaultPolicy *csp.CSPBuilder

	// PathPolicies maps path prefixes to policies. The longest matching prefix wins.
	PathPolicies map[string]*csp.CSPBuilder
}

// CSP sets the selected policy header before the handler runs. Handlers may
// still replace it, as the relay does for the documents it serves.
func CSP(config CSPConfig) func(http.Handler) http.Handler {
	type built struct{ header, value string }
	render := func(p *csp.CSPBuilder) *built {
		if p == nil {
			return nil
		}
		v := p.Build()
		if v == "" {
			return nil
		}
		return &built{header: p.HeaderName(), value: v}
	}

	// Policies are rendered once; builders are not safe for concurrent use.
	def := render(config.DefaultPolicy)
	paths := make(map[string]*built, len(config.PathPolicies))
	for prefix, p := range config.PathPolicies {
		paths[prefix] = render(p)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy := def
			longest := -1
			for prefix, p := range paths {
				if strings.HasPrefix(r.URL.Path, prefix) && len(prefix) > longest {
					longest = len(prefix)
					policy = p
				}
			}
			if policy != nil {
				w.Header().Set(policy.header, policy.value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
