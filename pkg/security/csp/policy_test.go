package csp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_Empty(t *testing.T) {
	assert.Equal(t, "", NewCSPBuilder().Build())
}

func TestBuild_FixedOrder(t *testing.T) {
	got := NewCSPBuilder().
		FrameAncestors("'none'").
		ImgSrc("'self'", "data:").
		DefaultSrc("'self'").
		Build()
	assert.Equal(t, "default-src 'self'; img-src 'self' data:; frame-ancestors 'none'", got)
}

func TestBuild_SkipsEmptySources(t *testing.T) {
	got := NewCSPBuilder().DefaultSrc("'none'").StyleSrc().Build()
	assert.Equal(t, "default-src 'none'", got)
}

func TestBuild_Sandbox(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		want  string
	}{
		{name: "bare", want: "sandbox; default-src 'none'"},
		{name: "with flags", flags: []string{"allow-popups", "allow-forms"}, want: "sandbox allow-popups allow-forms; default-src 'none'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCSPBuilder().DefaultSrc("'none'").Sandbox(tt.flags...).Build()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_Overwrite(t *testing.T) {
	got := NewCSPBuilder().DefaultSrc("'self'").DefaultSrc("'none'").Build()
	assert.Equal(t, "default-src 'none'", got)
}

func TestHeaderName(t *testing.T) {
	b := NewCSPBuilder()
	assert.Equal(t, "Content-Security-Policy", b.HeaderName())
	assert.Equal(t, "Content-Security-Policy-Report-Only", b.ReportOnly(true).HeaderName())
	assert.Equal(t, "Content-Security-Policy", b.ReportOnly(false).HeaderName())
}

func TestReportOnly_KeepsDirectives(t *testing.T) {
	b := StrictPolicy().ReportOnly(true)
	assert.Equal(t, "Content-Security-Policy-Report-Only", b.HeaderName())
	assert.Equal(t, StrictPolicy().Build(), b.Build())
}

func TestStrictPolicy(t *testing.T) {
	assert.Equal(t,
		"default-src 'none'; frame-ancestors 'none'; form-action 'none'; base-uri 'none'",
		StrictPolicy().Build())
}

func TestRelayPolicy(t *testing.T) {
	got := RelayPolicy().Build()
	assert.Equal(t,
		"sandbox; default-src 'none'; style-src 'unsafe-inline' https:; img-src https: data:; font-src https: data:; form-action 'none'; base-uri 'none'",
		got)
	assert.NotContains(t, got, "script-src")
	assert.NotContains(t, got, "allow-scripts")
}
