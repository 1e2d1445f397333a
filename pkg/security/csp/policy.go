// Package csp builds Content-Security-Policy header values.
package csp

import (
	"strings"
)

// directiveOrder fixes the order directives appear in a built policy.
var directiveOrder = []string{
	"sandbox",
	"default-src",
	"style-src",
	"img-src",
	"font-src",
	"frame-ancestors",
	"form-action",
	"base-uri",
}

// CSPBuilder provides a fluent interface for constructing Content-Security-Policy headers.
//
// Example Usage:
//
//	policy := NewCSPBuilder().
//	    DefaultSrc("'none'").
//	    FrameAncestors("'none'").
//	    Build()
//	// Returns: "default-src 'none'; frame-ancestors 'none'"
//
// CSPBuilder is not safe for concurrent mutation. Built policies are plain
// strings and may be shared freely.
type CSPBuilder struct {
	directives map[string][]string
	reportOnly bool
}

// NewCSPBuilder creates a builder with no directives.
func NewCSPBuilder() *CSPBuilder {
	return &CSPBuilder{directives: make(map[string][]string)}
}

func (b *CSPBuilder) set(directive string, values ...string) *CSPBuilder {
	b.directives[directive] = values
	return b
}

// Sandbox sets the sandbox directive. With no flags every sandbox
// restriction applies; flags such as "allow-popups" lift individual ones.
func (b *CSPBuilder) Sandbox(flags ...string) *CSPBuilder {
	if flags == nil {
		flags = []string{}
	}
	return b.set("sandbox", flags...)
}

// DefaultSrc sets the default-src directive, the fallback for every fetch directive.
func (b *CSPBuilder) DefaultSrc(sources ...string) *CSPBuilder {
	return b.set("default-src", sources...)
}

// StyleSrc sets the style-src directive.
func (b *CSPBuilder) StyleSrc(sources ...string) *CSPBuilder {
	return b.set("style-src", sources...)
}

// ImgSrc sets the img-src directive.
func (b *CSPBuilder) ImgSrc(sources ...string) *CSPBuilder {
	return b.set("img-src", sources...)
}

// FontSrc sets the font-src directive.
func (b *CSPBuilder) FontSrc(sources ...string) *CSPBuilder {
	return b.set("font-src", sources...)
}

// FrameAncestors sets the frame-ancestors directive, which controls who may
// embed the response in a frame.
func (b *CSPBuilder) FrameAncestors(sources ...string) *CSPBuilder {
	return b.set("frame-ancestors", sources...)
}

// FormAction sets the form-action directive.
func (b *CSPBuilder) FormAction(sources ...string) *CSPBuilder {
	return b.set("form-action", sources...)
}

// BaseUri sets the base-uri directive.
func (b *CSPBuilder) BaseUri(sources ...string) *CSPBuilder {
	return b.set("base-uri", sources...)
}

// ReportOnly switches the policy to report-only mode, so browsers report
// violations without enforcing them.
func (b *CSPBuilder) ReportOnly(enabled bool) *CSPBuilder {
	b.reportOnly = enabled
	return b
}

// Build renders the policy. Directives are joined with "; " in a fixed order.
// sandbox is the only directive rendered without values.
func (b *CSPBuilder) Build() string {
	parts := make([]string, 0, len(b.directives))
	for _, directive := range directiveOrder {
		values, ok := b.directives[directive]
		if !ok {
			continue
		}
		switch {
		case len(values) > 0:
			parts = append(parts, directive+" "+strings.Join(values, " "))
		case directive == "sandbox":
			parts = append(parts, directive)
		}
	}
	return strings.Join(parts, "; ")
}

// HeaderName returns the header the policy belongs in.
func (b *CSPBuilder) HeaderName() string {
	if b.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// StrictPolicy is the policy for JSON endpoints: nothing loads and nothing
// may frame the response.
func StrictPolicy() *CSPBuilder {
	return NewCSPBuilder().
		DefaultSrc("'none'").
		FrameAncestors("'none'").
		BaseUri("'none'").
		FormAction("'none'")
}

// RelayPolicy is the policy for third-party HTML served through the relay.
// The document is sandboxed into an opaque origin with scripts disabled and
// may only load the images and styles it needs to render.
func RelayPolicy() *CSPBuilder {
	return NewCSPBuilder().
		Sandbox().
		DefaultSrc("'none'").
		StyleSrc("'unsafe-inline'", "https:").
		ImgSrc("https:", "data:").
		FontSrc("https:", "data:").
		FormAction("'none'").
		BaseUri("'none'")
}
