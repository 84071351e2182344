package breaker

import (
	"sync"
	"time"
)

// Registry creates one breaker per API name, lazily, for the process
// lifetime. Instances are never removed.
type Registry struct {
	mu               sync.Mutex
	breakers         map[string]*Breaker
	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration
}

// NewRegistry creates a registry whose breakers share the given thresholds.
func NewRegistry(failureThreshold, successThreshold int, recoveryTimeout time.Duration) *Registry {
	return &Registry{
		breakers:         make(map[string]*Breaker),
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
	}
}

// Get returns the breaker for an API name, creating it on first access.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}

	b := New(name, r.failureThreshold, r.successThreshold, r.recoveryTimeout)
	r.breakers[name] = b
	return b
}

// States returns the current state per registered API name.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]State, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
