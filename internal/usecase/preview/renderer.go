package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/observability/metrics"
)

// MetadataResolver produces the presentation attributes of a page.
// Resolve never fails; on any error it returns a record built from the URL.
type MetadataResolver interface {
	Resolve(ctx context.Context, rawURL string) entity.PageMetadata
}

// RendererConfig configures a Renderer.
type RendererConfig struct {
	Prober          Prober
	Resolver        MetadataResolver
	ProbeTimeout    time.Duration
	MetadataTimeout time.Duration

	// OnChange receives every view transition in order. It runs on the
	// goroutine that caused the transition and must not call back into the
	// Renderer.
	OnChange func(entity.ViewState)

	Logger *slog.Logger
}

type taskKind int

const (
	probeTask taskKind = iota
	metadataTask
)

// taskResult is the tagged value an asynchronous task hands back to the
// renderer. requestID identifies the preview that started the task.
type taskResult struct {
	requestID uint64
	kind      taskKind
	probe     entity.ProbeOutcome
	metadata  *entity.PageMetadata
}

// ActivePreview owns everything belonging to one open preview: its request,
// classification, current view and the context its tasks run under.
type ActivePreview struct {
	id              uint64
	request         entity.PreviewRequest
	classification  entity.Classification
	view            entity.ViewState
	metadataStarted bool

	ctx    context.Context
	cancel context.CancelFunc
	probes sync.WaitGroup
}

// release cancels the preview's tasks and waits for its probe to give back
// its timer and frame. Metadata fetches are not awaited; their late results
// are dropped by the staleness check.
func (a *ActivePreview) release() {
	a.cancel()
	a.probes.Wait()
}

// Renderer drives the preview state machine for a single active-preview slot.
//
// Transitions:
//
//	non-web kinds            -> iframe
//	web                      -> probing
//	probing (succeeded)      -> iframe
//	probing (failed)         -> metadataLoading -> metadataCard | metadataUnavailable
//	metadataCard (EmbedAnyway) -> iframe
//	any (Close)              -> closed
type Renderer struct {
	cfg    RendererConfig
	logger *slog.Logger

	mu       sync.Mutex
	notifyMu sync.Mutex
	active   *ActivePreview
	lastID   uint64
	stopped  bool

	results  chan taskResult
	quit     chan struct{}
	loopDone chan struct{}
	inflight sync.WaitGroup
	stopOnce sync.Once
}

// NewRenderer starts a renderer and its result consumer. Call Stop to release it.
func NewRenderer(cfg RendererConfig) *Renderer {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		cfg:      cfg,
		logger:   logger,
		results:  make(chan taskResult),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go r.consume()
	return r
}

// Open shows a preview for rawURL. Any preview already open is torn down
// before the new resolution starts.
func (r *Renderer) Open(rawURL string) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	if r.active != nil {
		r.active.release()
		r.active = nil
	}

	r.lastID++
	ctx, cancel := context.WithCancel(context.Background())
	a := &ActivePreview{
		id:             r.lastID,
		request:        entity.PreviewRequest{URL: rawURL},
		classification: Classify(rawURL),
		ctx:            ctx,
		cancel:         cancel,
	}
	r.active = a
	metrics.RecordClassification(string(a.classification.Kind))

	if !a.classification.Kind.IsWeb() {
		a.view = entity.IframeView(a.classification.EmbedURL)
		metrics.RecordPreviewResolution(string(a.classification.Kind), string(entity.ModeIframe))
	} else {
		a.view = entity.ViewState{Mode: entity.ModeProbing}
		a.probes.Add(1)
		r.inflight.Add(1)
		go r.runProbe(a)
	}

	r.logger.Debug("preview opened",
		slog.Uint64("request", a.id),
		slog.String("url", rawURL),
		slog.String("kind", string(a.classification.Kind)))
	r.publishLocked(a.view)
}

// Close destroys the open preview, whatever state it is in.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.active == nil {
		r.mu.Unlock()
		return
	}
	r.active.release()
	r.active = nil
	r.publishLocked(entity.ClosedView())
}

// EmbedAnyway switches a metadata card to the iframe using the unprobed embed
// URL. It reports whether the transition happened.
func (r *Renderer) EmbedAnyway() bool {
	r.mu.Lock()
	a := r.active
	if a == nil || a.view.Mode != entity.ModeMetadataCard {
		r.mu.Unlock()
		return false
	}
	a.view = entity.IframeView(a.classification.EmbedURL)
	r.publishLocked(a.view)
	return true
}

// State returns the current view.
func (r *Renderer) State() entity.ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return entity.ClosedView()
	}
	return r.active.view
}

// Active returns the classification of the open preview.
func (r *Renderer) Active() (entity.Classification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return entity.Classification{}, false
	}
	return r.active.classification, true
}

// Stop closes the open preview, stops the consumer and waits for every task.
func (r *Renderer) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		if r.active != nil {
			r.active.release()
			r.active = nil
		}
		r.mu.Unlock()

		close(r.quit)
		<-r.loopDone
		r.inflight.Wait()
	})
}

// publishLocked hands the view to the observer in transition order and
// releases r.mu. The observer runs without r.mu held.
func (r *Renderer) publishLocked(v entity.ViewState) {
	r.notifyMu.Lock()
	r.mu.Unlock()
	defer r.notifyMu.Unlock()
	if r.cfg.OnChange != nil {
		r.cfg.OnChange(v)
	}
}

func (r *Renderer) consume() {
	defer close(r.loopDone)
	for {
		select {
		case res := <-r.results:
			r.apply(res)
		case <-r.quit:
			return
		}
	}
}

// post delivers a task result unless the preview was torn down meanwhile.
func (r *Renderer) post(a *ActivePreview, res taskResult) {
	select {
	case r.results <- res:
	case <-a.ctx.Done():
	case <-r.quit:
	}
}

func (r *Renderer) runProbe(a *ActivePreview) {
	defer r.inflight.Done()
	defer a.probes.Done()
	outcome := Probe(a.ctx, r.cfg.Prober, a.classification.EmbedURL, r.cfg.ProbeTimeout)
	r.post(a, taskResult{requestID: a.id, kind: probeTask, probe: outcome})
}

func (r *Renderer) runMetadata(a *ActivePreview) {
	defer r.inflight.Done()
	ctx, cancel := context.WithTimeout(a.ctx, r.cfg.MetadataTimeout)
	defer cancel()

	var md *entity.PageMetadata
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("metadata resolver panicked",
					slog.String("url", a.classification.OriginalURL),
					slog.Any("panic", rec))
			}
		}()
		resolved := r.cfg.Resolver.Resolve(ctx, a.classification.OriginalURL)
		md = &resolved
	}()
	r.post(a, taskResult{requestID: a.id, kind: metadataTask, metadata: md})
}

// apply is the single point where task results become transitions.
func (r *Renderer) apply(res taskResult) {
	r.mu.Lock()
	a := r.active
	if a == nil || a.id != res.requestID {
		r.mu.Unlock()
		metrics.RecordStalePreviewResult()
		r.logger.Debug("discarding stale preview result", slog.Uint64("request", res.requestID))
		return
	}

	switch res.kind {
	case probeTask:
		if a.view.Mode != entity.ModeProbing {
			r.mu.Unlock()
			return
		}
		if res.probe.Succeeded {
			a.view = entity.IframeView(a.classification.EmbedURL)
			metrics.RecordPreviewResolution(string(a.classification.Kind), string(entity.ModeIframe))
			r.publishLocked(a.view)
			return
		}
		a.view = entity.ViewState{Mode: entity.ModeMetadataLoading}
		if !a.metadataStarted {
			a.metadataStarted = true
			r.inflight.Add(1)
			go r.runMetadata(a)
		}
		r.publishLocked(a.view)

	case metadataTask:
		if a.view.Mode != entity.ModeMetadataLoading {
			r.mu.Unlock()
			return
		}
		if res.metadata == nil || res.metadata.Domain == "" {
			a.view = entity.ViewState{Mode: entity.ModeMetadataUnavailable}
		} else {
			a.view = entity.CardView(*res.metadata)
		}
		metrics.RecordPreviewResolution(string(a.classification.Kind), string(a.view.Mode))
		r.publishLocked(a.view)

	default:
		r.mu.Unlock()
	}
}
