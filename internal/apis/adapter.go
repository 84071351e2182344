package apis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/factweave/veridex/internal/model"
)

// Adapter is the uniform contract every institutional/government API
// wrapper implements. Each adapter owns translating its provider's native
// schema into EvidenceRecord — that parsing logic lives nowhere else.
type Adapter interface {
	// Name is the human-readable API name the adapter registers under.
	Name() string

	// Search queries the external API for evidence about the claim query.
	Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error)

	// IsRelevantForDomain reports whether this adapter should be consulted
	// for the given domain/jurisdiction pair.
	IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool

	// CacheTTL declares how long responses stay fresh, reflecting the
	// volatility of the underlying data.
	CacheTTL() time.Duration
}

// Registry holds adapters keyed by name. It is the routing join point
// between domain classification and retrieval.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its own name, replacing any previous
// registration for that name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	r.adapters[a.Name()] = a
	r.mu.Unlock()
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// AdaptersForDomain returns the registered adapters whose relevance
// predicate passes for the domain/jurisdiction pair, in name order.
func (r *Registry) AdaptersForDomain(domain model.Domain, jurisdiction model.Jurisdiction) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Adapter
	for _, a := range r.adapters {
		if a.IsRelevantForDomain(domain, jurisdiction) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns all registered adapter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry registers the full built-in adapter set against the
// given client.
func DefaultRegistry(client *Client) *Registry {
	r := NewRegistry()
	r.Register(NewONSAdapter(client))
	r.Register(NewFREDAdapter(client, ""))
	r.Register(NewWorldBankAdapter(client))
	r.Register(NewWHOAdapter(client))
	r.Register(NewLegislationAdapter(client))
	r.Register(NewCourtListenerAdapter(client))
	r.Register(NewOpenMeteoAdapter(client))
	r.Register(NewOpenAlexAdapter(client))
	r.Register(NewCompaniesHouseAdapter(client, ""))
	r.Register(NewCommoditiesAdapter(client))
	r.Register(NewSportsAdapter(client))
	return r
}
