package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserProber_CloseBeforeUse(t *testing.T) {
	p := NewBrowserProber(BrowserConfig{Headless: true}, nil)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	ok, err := p.ProbeEmbed(context.Background(), "https://example.com")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrBrowserClosed)
}

func TestBrowserProber_LoadsFrame(t *testing.T) {
	bin := os.Getenv("CHROME_BIN")
	if bin == "" {
		t.Skip("CHROME_BIN not set")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	p := NewBrowserProber(BrowserConfig{Bin: bin, Headless: true}, nil)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok, err := p.ProbeEmbed(ctx, srv.URL)
	require.NoError(t, err)
	assert.True(t, ok)
}
