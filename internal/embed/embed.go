// Package embed computes sentence embeddings for semantic similarity.
// Embeddings are a best-effort accelerator: any provider or cache failure
// degrades to a nil vector and callers take the lexical path instead.
package embed

import (
	"context"

	"gonum.org/v1/gonum/floats"
)

// Provider produces fixed-dimension normalized vectors for text. Batch
// calls are the primary interface so remote providers can amortize
// round-trips.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// EmbedBatch returns one normalized vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Cosine returns the cosine similarity of two normalized vectors, clamped
// to [-1, 1]. Mismatched or empty vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	// Vectors are normalized at embed time, so the dot product is the
	// cosine already. Clamp anyway: float drift can nudge it past 1.
	sim := floats.Dot(a, b)
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged.
func Normalize(v []float64) []float64 {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return v
	}
	floats.Scale(1/norm, v)
	return v
}
