package apis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/factweave/veridex/internal/cache"
	"github.com/factweave/veridex/internal/model"
)

// CachedSearcher wraps adapter searches with the shared cache, recording a
// hit/miss metric per API name. Cache failures degrade silently to the
// uncached path.
type CachedSearcher struct {
	cache   cache.Cache
	metrics *cache.Metrics
}

// NewCachedSearcher builds the wrapper. A nil cache becomes a no-op cache.
func NewCachedSearcher(c cache.Cache, metrics *cache.Metrics) *CachedSearcher {
	if c == nil {
		c = cache.Null{}
	}
	if metrics == nil {
		metrics = cache.NewMetrics()
	}
	return &CachedSearcher{cache: c, metrics: metrics}
}

// Metrics exposes the underlying hit/miss counters.
func (s *CachedSearcher) Metrics() *cache.Metrics {
	return s.metrics
}

// Search checks the cache before dispatching to the adapter, storing fresh
// results under the adapter's own TTL.
func (s *CachedSearcher) Search(ctx context.Context, a Adapter, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	key := cache.Key(cache.CategoryAPI,
		fmt.Sprintf("%s|%s|%s|%s", a.Name(), query, domain, jurisdiction))

	if data, ok := s.cache.Get(key); ok {
		var records []model.EvidenceRecord
		if err := json.Unmarshal(data, &records); err == nil {
			s.metrics.Hit(a.Name())
			return records, nil
		}
		// Corrupt entry: drop it and fall through to a live call.
		_ = s.cache.Delete(key)
	}
	s.metrics.Miss(a.Name())

	records, err := a.Search(ctx, query, domain, jurisdiction)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		_ = s.cache.Set(key, data, a.CacheTTL())
	}
	return records, nil
}
