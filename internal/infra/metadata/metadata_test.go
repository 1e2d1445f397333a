package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://www.example.com/about", want: "example.com"},
		{in: "https://Blog.Example.COM:8443/x", want: "blog.example.com"},
		{in: "example.org/page", want: "example.org"},
		{in: "http://[2001:db8::1]/", want: "2001:db8::1"},
		{in: "just some words", want: "unknown"},
		{in: "", want: "unknown"},
		{in: "://", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainOf(tt.in))
		})
	}
}

func TestFallback(t *testing.T) {
	md := Fallback("https://www.fab.city/projects")

	assert.Equal(t, "fab.city", md.Domain)
	assert.Equal(t, "fab.city", md.Title)
	assert.Empty(t, md.Description)
	assert.False(t, md.HasImage())
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=fab.city&sz=128", md.FaviconURL)
	assert.Equal(t, "https://www.fab.city/projects", md.URL)
}
