package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avolkhin/fincascade/internal/cache"
	"github.com/avolkhin/fincascade/internal/evidence"
)

// CachingProvider decorates a Provider with response caching keyed by
// document content. Hints are deliberately excluded from the key: they are
// soft guidance, and caching across hint changes keeps reruns cheap and
// reproducible.
type CachingProvider struct {
	inner Provider
	cache cache.Cache
	model string
	ttl   time.Duration
}

// NewCachingProvider wraps a provider with the given cache.
func NewCachingProvider(inner Provider, c cache.Cache, modelName string, ttl time.Duration) *CachingProvider {
	return &CachingProvider{inner: inner, cache: c, model: modelName, ttl: ttl}
}

// Name returns the wrapped provider's name.
func (p *CachingProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable defers to the wrapped provider.
func (p *CachingProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Extract serves from cache when possible, delegating misses to the wrapped
// provider.
func (p *CachingProvider) Extract(ctx context.Context, doc evidence.Document, hints ContextHints) ([]CandidateEpisode, error) {
	key := cache.OracleKey(p.inner.Name(), p.model, doc.Content)

	if data, found := p.cache.Get(key); found {
		var cached []CandidateEpisode
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		// Corrupt entry: fall through to the real provider.
		_ = p.cache.Delete(key)
	}

	candidates, err := p.inner.Extract(ctx, doc, hints)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(candidates); err == nil {
		_ = p.cache.Set(key, data, p.ttl)
	}

	return candidates, nil
}

var _ Provider = (*CachingProvider)(nil)
