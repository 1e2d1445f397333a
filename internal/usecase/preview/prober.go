package preview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/observability/metrics"
)

const (
	// DefaultProbeTimeout is the budget a web page has to signal that it loaded.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultMetadataTimeout bounds a single metadata resolution.
	DefaultMetadataTimeout = 8 * time.Second
)

// ErrFrameBlocked is returned by probers that can see the page refusing to be framed.
var ErrFrameBlocked = errors.New("page refuses to be embedded")

// Prober loads an embed URL the way the widget would and reports whether it
// rendered. Implementations must return as soon as ctx is done and must release
// every resource they allocated before returning.
type Prober interface {
	ProbeEmbed(ctx context.Context, embedURL string) (bool, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, embedURL string) (bool, error)

// ProbeEmbed calls f(ctx, embedURL).
func (f ProberFunc) ProbeEmbed(ctx context.Context, embedURL string) (bool, error) {
	return f(ctx, embedURL)
}

// Probe runs one embeddability probe bounded by timeout. A success signal
// resolves true, an error signal or an elapsed budget resolves false.
// Exactly one outcome is produced and the probe's timer is stopped on return.
func Probe(ctx context.Context, p Prober, embedURL string, timeout time.Duration) entity.ProbeOutcome {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	type signal struct {
		ok  bool
		err error
	}
	// Buffered so a prober that ignores ctx cannot block forever on send.
	signals := make(chan signal, 1)
	go func() {
		ok, err := p.ProbeEmbed(probeCtx, embedURL)
		signals <- signal{ok: ok, err: err}
	}()

	var outcome entity.ProbeOutcome
	result := "timeout"
	select {
	case s := <-signals:
		outcome.Succeeded = s.ok && s.err == nil
		switch {
		case outcome.Succeeded:
			result = "success"
		case errors.Is(s.err, context.DeadlineExceeded):
			result = "timeout"
		default:
			result = "error"
		}
		if s.err != nil {
			slog.Debug("embed probe failed",
				slog.String("url", embedURL),
				slog.Any("error", s.err))
		}
	case <-probeCtx.Done():
		if ctx.Err() != nil {
			result = "canceled"
		}
	}

	metrics.RecordProbe(result, time.Since(start))
	return outcome
}
