package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for the best-effort key/value cache. All
// implementations are safe for concurrent use; a failed read or write must
// never abort retrieval.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Category namespaces cache keys by what they store. Each category has its
// own TTL reflecting the volatility of the data.
type Category string

const (
	CategorySearch     Category = "search"    // Web search results
	CategoryExtraction Category = "extract"   // Extracted page content
	CategoryEmbedding  Category = "embedding" // Sentence embeddings
	CategoryPipeline   Category = "pipeline"  // Whole-pipeline results
	CategoryAPI        Category = "api"       // Institutional API responses
)

// Key builds a namespaced cache key: category prefix plus a digest of the
// identifier. The category:identifier shape is this subsystem's convention,
// not the backend's.
func Key(category Category, identifier string) string {
	hash := sha256.Sum256([]byte(identifier))
	return "veridex:v1:" + string(category) + ":" + hex.EncodeToString(hash[:])
}

// Null is a no-op Cache used when the backing store is unavailable or
// caching is disabled. Callers never branch on cache presence.
type Null struct{}

func (Null) Get(string) ([]byte, bool)               { return nil, false }
func (Null) Set(string, []byte, time.Duration) error { return nil }
func (Null) Delete(string) error                     { return nil }
func (Null) Clear() error                            { return nil }
