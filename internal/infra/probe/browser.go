package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"chatwidget/internal/domain/entity"
)

// frameProbeJS mounts an off-screen sandboxed frame, resolves true on its
// load event and false on error or after timeoutMs. The frame is removed
// before the promise settles.
const frameProbeJS = `(url, sandbox, timeoutMs) => new Promise((resolve) => {
	const frame = document.createElement('iframe');
	frame.setAttribute('sandbox', sandbox);
	frame.style.cssText = 'position:absolute;left:-10000px;top:-10000px;width:1px;height:1px;visibility:hidden';
	let settled = false;
	const finish = (ok) => {
		if (settled) return;
		settled = true;
		clearTimeout(timer);
		frame.remove();
		resolve(ok);
	};
	const timer = setTimeout(() => finish(false), timeoutMs);
	frame.onload = () => finish(true);
	frame.onerror = () => finish(false);
	frame.src = url;
	document.body.appendChild(frame);
})`

// ErrBrowserClosed is returned by a BrowserProber after Close.
var ErrBrowserClosed = errors.New("browser prober closed")

// BrowserConfig configures a BrowserProber.
type BrowserConfig struct {
	// ControlURL attaches to a running Chrome DevTools endpoint. When empty a
	// headless Chrome is launched from Bin, or from rod's managed download.
	ControlURL string
	Bin        string
	Headless   bool
}

// BrowserProber probes embeddability the way the widget does: a hidden
// sandboxed frame inside a real headless browser. A frame's load event also
// fires for pages the browser refuses to render, so a HeaderProber in front
// of it catches framing refusals.
type BrowserProber struct {
	cfg    BrowserConfig
	logger *slog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launched *launcher.Launcher
	closed   bool
}

// NewBrowserProber creates a BrowserProber. The browser is started lazily on
// the first probe.
func NewBrowserProber(cfg BrowserConfig, logger *slog.Logger) *BrowserProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserProber{cfg: cfg, logger: logger}
}

// ProbeEmbed implements preview.Prober. Each probe runs on its own blank page
// that is closed before returning.
func (p *BrowserProber) ProbeEmbed(ctx context.Context, embedURL string) (bool, error) {
	browser, err := p.connect()
	if err != nil {
		return false, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return false, fmt.Errorf("open probe page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			p.logger.Debug("close probe page", slog.Any("error", err))
		}
	}()

	timeoutMs := int64(30_000)
	if deadline, ok := ctx.Deadline(); ok {
		timeoutMs = max(time.Until(deadline).Milliseconds(), 1)
	}

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           frameProbeJS,
		JSArgs:       []interface{}{embedURL, entity.SandboxPermissions, timeoutMs},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, fmt.Errorf("evaluate frame probe: %w", err)
	}
	if res == nil {
		return false, nil
	}
	return res.Value.Bool(), nil
}

// connect returns the shared browser, starting it on first use.
func (p *BrowserProber) connect() (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrBrowserClosed
	}
	if p.browser != nil {
		return p.browser, nil
	}

	controlURL := p.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(p.cfg.Headless)
		if p.cfg.Bin != "" {
			l = l.Bin(p.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
		p.launched = l
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if p.launched != nil {
			p.launched.Kill()
			p.launched = nil
		}
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	p.logger.Info("probe browser connected", slog.String("control_url", controlURL))
	p.browser = browser
	return browser, nil
}

// Close shuts the browser down. Probes after Close fail with ErrBrowserClosed.
func (p *BrowserProber) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.browser != nil {
		err = p.browser.Close()
		p.browser = nil
	}
	if p.launched != nil {
		p.launched.Kill()
		p.launched = nil
	}
	return err
}
