package metadata

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/infra/fetcher"
	"chatwidget/internal/observability/metrics"
	"chatwidget/internal/observability/tracing"
)

// Config controls metadata resolution.
type Config struct {
	// Timeout bounds one page resolution. Default: 8s
	Timeout time.Duration

	// CacheSize is the number of resolved records kept. Default: 512
	CacheSize int

	// CacheTTL is how long a resolved record stays valid. Default: 10m
	CacheTTL time.Duration

	// ReadabilityFallback fills an empty description with a readable excerpt
	// of the page body.
	ReadabilityFallback bool
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:   8 * time.Second,
		CacheSize: 512,
		CacheTTL:  10 * time.Minute,
	}
}

// Resolver resolves page metadata with caching and request collapsing.
// Resolve never fails and always returns a record with a non-empty Domain.
//
// Thread safety: Resolver is safe for concurrent use.
type Resolver struct {
	source PageSource
	config Config
	cache  *expirable.LRU[string, entity.PageMetadata]
	group  singleflight.Group
	logger *slog.Logger
}

// NewResolver creates a Resolver reading pages from source.
func NewResolver(source PageSource, config Config, logger *slog.Logger) *Resolver {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheSize <= 0 {
		config.CacheSize = defaults.CacheSize
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source: source,
		config: config,
		cache:  expirable.NewLRU[string, entity.PageMetadata](config.CacheSize, nil, config.CacheTTL),
		logger: logger,
	}
}

// Resolve returns the metadata of rawURL.
//
// Concurrent calls for the same URL share one fetch. The shared fetch runs
// under its own timeout, so a caller that gives up early gets the fallback
// record immediately while the fetch still fills the cache for the next one.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) entity.PageMetadata {
	if md, ok := r.cache.Get(rawURL); ok {
		metrics.RecordMetadataCacheHit(r.source.Name())
		return md
	}

	ch := r.group.DoChan(rawURL, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.Timeout)
		defer cancel()
		return r.resolve(fetchCtx, rawURL), nil
	})

	select {
	case res := <-ch:
		return res.Val.(entity.PageMetadata)
	case <-ctx.Done():
		r.logger.Debug("metadata resolution abandoned",
			slog.String("url", rawURL),
			slog.Any("error", ctx.Err()))
		return Fallback(rawURL)
	}
}

func (r *Resolver) resolve(ctx context.Context, rawURL string) entity.PageMetadata {
	start := time.Now()
	source := r.source.Name()
	ctx, span := tracing.StartSpan(ctx, "metadata.resolve", attribute.String("metadata.source", source))
	defer span.End()

	page, err := r.source.Fetch(ctx, rawURL)
	if err != nil {
		r.logger.Debug("metadata fetch failed, using fallback",
			slog.String("url", rawURL),
			slog.String("source", source),
			slog.Any("error", err))
		tracing.RecordError(span, err)
		metrics.RecordMetadataFallback(source, time.Since(start))
		return Fallback(rawURL)
	}

	md, err := Extract(page.Body, page.URL, rawURL)
	if err != nil {
		r.logger.Debug("metadata parse failed, using fallback",
			slog.String("url", rawURL),
			slog.Any("error", err))
		tracing.RecordError(span, err)
		metrics.RecordMetadataFallback(source, time.Since(start))
		return Fallback(rawURL)
	}

	if md.Description == "" && r.config.ReadabilityFallback {
		if excerpt, err := fetcher.Excerpt(page, MaxDescriptionRunes); err == nil {
			md.Description = cleanText(excerpt, MaxDescriptionRunes)
		}
	}

	r.cache.Add(rawURL, md)
	metrics.RecordMetadataSuccess(source, time.Since(start))
	return md
}
