package preview

import (
	"context"
	"time"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/observability/metrics"
)

// Service resolves a preview in one shot, for callers that cannot run the
// interactive renderer. It follows the same transitions and returns the view
// the renderer would settle on.
type Service struct {
	Prober       Prober
	Resolver     MetadataResolver
	ProbeTimeout time.Duration
}

// Classify returns the classification of rawURL.
func (s *Service) Classify(rawURL string) entity.Classification {
	c := Classify(rawURL)
	metrics.RecordClassification(string(c.Kind))
	return c
}

// Resolve classifies rawURL, probes web pages and falls back to a metadata
// card when the page cannot be framed.
func (s *Service) Resolve(ctx context.Context, rawURL string) entity.PreviewResolution {
	res := entity.PreviewResolution{
		Classification: s.Classify(rawURL),
		Sandbox:        entity.SandboxPermissions,
	}
	c := res.Classification

	if !c.Kind.IsWeb() {
		res.View = entity.IframeView(c.EmbedURL)
		metrics.RecordPreviewResolution(string(c.Kind), string(res.View.Mode))
		return res
	}

	res.Probed = true
	if Probe(ctx, s.Prober, c.EmbedURL, s.ProbeTimeout).Succeeded {
		res.View = entity.IframeView(c.EmbedURL)
		metrics.RecordPreviewResolution(string(c.Kind), string(res.View.Mode))
		return res
	}

	md := s.Resolver.Resolve(ctx, c.OriginalURL)
	if md.Domain == "" {
		res.View = entity.ViewState{Mode: entity.ModeMetadataUnavailable}
	} else {
		res.View = entity.CardView(md)
	}
	metrics.RecordPreviewResolution(string(c.Kind), string(res.View.Mode))
	return res
}
