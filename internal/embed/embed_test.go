package embed

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/factweave/veridex/internal/cache"
)

type fakeProvider struct {
	calls   int
	batches [][]string
	vectors map[string][]float64
	err     error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"empty", nil, nil, 0},
		{"mismatched dims", []float64{1}, []float64{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineClampsDrift(t *testing.T) {
	// Slightly over-unit vectors can dot past 1.
	a := []float64{1.0000001, 0}
	if got := Cosine(a, a); got != 1 {
		t.Errorf("Cosine() = %v, want clamped 1", got)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})
	if math.Abs(v[0]-0.6) > 1e-9 || math.Abs(v[1]-0.8) > 1e-9 {
		t.Errorf("Normalize() = %v", v)
	}

	zero := Normalize([]float64{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector should be unchanged, got %v", zero)
	}
}

func TestServiceBatchesOnlyCacheMisses(t *testing.T) {
	p := &fakeProvider{vectors: map[string][]float64{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}
	s := NewService(p, cache.NewMemoryCache(time.Hour, 0), time.Hour)
	ctx := context.Background()

	first := s.EmbedBatch(ctx, []string{"alpha", "beta"})
	if len(first) != 2 || first[0] == nil || first[1] == nil {
		t.Fatalf("first batch = %v", first)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", p.calls)
	}

	// alpha is cached; only gamma should reach the provider.
	p.vectors["gamma"] = []float64{0.6, 0.8}
	second := s.EmbedBatch(ctx, []string{"alpha", "gamma"})
	if len(second) != 2 {
		t.Fatalf("second batch = %v", second)
	}
	if p.calls != 2 {
		t.Errorf("provider calls = %d, want 2", p.calls)
	}
	if got := p.batches[1]; len(got) != 1 || got[0] != "gamma" {
		t.Errorf("second provider batch = %v, want [gamma]", got)
	}
	if second[0][0] != 1 {
		t.Errorf("cached alpha vector = %v", second[0])
	}
}

func TestServiceDegradesToNilOnProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("model down")}
	s := NewService(p, cache.NewMemoryCache(time.Hour, 0), time.Hour)

	if got := s.EmbedBatch(context.Background(), []string{"text"}); got != nil {
		t.Errorf("EmbedBatch() = %v, want nil on provider failure", got)
	}
	if got := s.Embed(context.Background(), "text"); got != nil {
		t.Errorf("Embed() = %v, want nil", got)
	}
}

func TestServiceNilProviderDisabled(t *testing.T) {
	s := NewService(nil, nil, 0)
	if s.Enabled() {
		t.Error("Enabled() = true with nil provider")
	}
	if got := s.EmbedBatch(context.Background(), []string{"text"}); got != nil {
		t.Errorf("EmbedBatch() = %v, want nil", got)
	}
	if _, ok := s.Similarity(context.Background(), "a", "b"); ok {
		t.Error("Similarity() ok = true with nil provider")
	}
}

func TestServiceSimilarity(t *testing.T) {
	p := &fakeProvider{vectors: map[string][]float64{
		"a": {1, 0},
		"b": {0.6, 0.8},
	}}
	s := NewService(p, cache.NewMemoryCache(time.Hour, 0), time.Hour)

	sim, ok := s.Similarity(context.Background(), "a", "b")
	if !ok {
		t.Fatal("Similarity() not ok")
	}
	if math.Abs(sim-0.6) > 1e-9 {
		t.Errorf("Similarity() = %v, want 0.6", sim)
	}
}
