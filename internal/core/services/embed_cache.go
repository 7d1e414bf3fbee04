package services

import (
	"context"

	"github.com/mitra-labs/ledgercore/internal/embedding"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// embedCache memoizes description embeddings for the duration of one
// reconciliation run. Statement descriptions repeat heavily (same payee,
// month after month), so this keeps provider calls roughly proportional to
// distinct descriptions. Not safe for concurrent use; each run owns its own.
type embedCache struct {
	provider embedding.Provider
	vectors  map[string][]float64
}

func newEmbedCache(provider embedding.Provider) *embedCache {
	return &embedCache{
		provider: provider,
		vectors:  make(map[string][]float64),
	}
}

// embed returns the vector for text, or nil when the provider fails. A failed
// embedding degrades the description factor to zero instead of aborting the
// run.
func (c *embedCache) embed(ctx context.Context, text string) []float64 {
	if vec, ok := c.vectors[text]; ok {
		return vec
	}
	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("embedding failed, description factor degraded", "error", err)
		vec = nil
	}
	c.vectors[text] = vec
	return vec
}
