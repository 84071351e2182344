package cache

import "sync"

// Metrics tracks cache hit/miss counts keyed by an observability label,
// typically the category name or an API name.
type Metrics struct {
	mu     sync.Mutex
	hits   map[string]int64
	misses map[string]int64
}

// NewMetrics creates an empty metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		hits:   make(map[string]int64),
		misses: make(map[string]int64),
	}
}

// Hit records a cache hit for the given label
func (m *Metrics) Hit(label string) {
	m.mu.Lock()
	m.hits[label]++
	m.mu.Unlock()
}

// Miss records a cache miss for the given label
func (m *Metrics) Miss(label string) {
	m.mu.Lock()
	m.misses[label]++
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters as label -> [hits, misses]
func (m *Metrics) Snapshot() map[string][2]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][2]int64, len(m.hits)+len(m.misses))
	for label, h := range m.hits {
		entry := out[label]
		entry[0] = h
		out[label] = entry
	}
	for label, miss := range m.misses {
		entry := out[label]
		entry[1] = miss
		out[label] = entry
	}
	return out
}

// HitRate returns hits/(hits+misses) for a label, 0 when unobserved
func (m *Metrics) HitRate(label string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.hits[label] + m.misses[label]
	if total == 0 {
		return 0
	}
	return float64(m.hits[label]) / float64(total)
}
