package probe

import (
	"context"

	"chatwidget/internal/usecase/preview"
)

// Chain runs probers in order and succeeds only if every one succeeds.
// The first failure short-circuits the rest.
type Chain []preview.Prober

// ProbeEmbed implements preview.Prober.
func (c Chain) ProbeEmbed(ctx context.Context, embedURL string) (bool, error) {
	if len(c) == 0 {
		return false, nil
	}
	for _, p := range c {
		ok, err := p.ProbeEmbed(ctx, embedURL)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
