package embed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/factweave/veridex/internal/cache"
)

// Service wraps a Provider with per-text caching. A nil provider or any
// provider error degrades to nil vectors so retrieval can continue on the
// lexical path.
type Service struct {
	provider Provider
	cache    cache.Cache
	ttl      time.Duration
}

// NewService builds the caching wrapper. provider may be nil (embeddings
// disabled); c may be nil (no caching).
func NewService(provider Provider, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Null{}
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{provider: provider, cache: c, ttl: ttl}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// Embed returns the normalized vector for a single text, or nil when
// embeddings are unavailable.
func (s *Service) Embed(ctx context.Context, text string) []float64 {
	vectors := s.EmbedBatch(ctx, []string{text})
	if len(vectors) == 0 {
		return nil
	}
	return vectors[0]
}

// EmbedBatch returns one vector per text, serving cached entries and
// batching only the misses to the provider. On provider failure it
// returns nil rather than an error.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) [][]float64 {
	if s.provider == nil || len(texts) == 0 {
		return nil
	}

	vectors := make([][]float64, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		key := cache.Key(cache.CategoryEmbedding, s.provider.Name()+"|"+text)
		if data, ok := s.cache.Get(key); ok {
			var vec []float64
			if err := json.Unmarshal(data, &vec); err == nil && len(vec) > 0 {
				vectors[i] = vec
				continue
			}
			_ = s.cache.Delete(key)
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		fresh, err := s.provider.EmbedBatch(ctx, missTexts)
		if err != nil || len(fresh) != len(missTexts) {
			return nil
		}
		for j, vec := range fresh {
			vectors[missIdx[j]] = vec
			key := cache.Key(cache.CategoryEmbedding, s.provider.Name()+"|"+missTexts[j])
			if data, err := json.Marshal(vec); err == nil {
				_ = s.cache.Set(key, data, s.ttl)
			}
		}
	}
	return vectors
}

// Similarity returns the cosine similarity of two texts, or 0 when
// embeddings are unavailable.
func (s *Service) Similarity(ctx context.Context, a, b string) (float64, bool) {
	vectors := s.EmbedBatch(ctx, []string{a, b})
	if len(vectors) != 2 || vectors[0] == nil || vectors[1] == nil {
		return 0, false
	}
	return Cosine(vectors[0], vectors[1]), true
}
