package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Rejecting immediately
	StateHalfOpen              // Probationary
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrOpen signals that the breaker rejected the call without invoking the
// wrapped function. Callers treat it as an immediate, cheap "no evidence
// from this source" — it never counts against the wrapped function's retry
// budget.
var ErrOpen = errors.New("circuit breaker open")

// IsOpen reports whether err is a breaker-open rejection.
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpen)
}

// Breaker is a per-API fault-isolation state machine. State transitions
// happen inside Call under the mutex; the critical section never includes
// the wrapped function itself.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	now func() time.Time // Injectable for tests
}

// New creates a breaker for one API name.
func New(name string, failureThreshold, successThreshold int, recoveryTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	if successThreshold <= 0 {
		successThreshold = 2
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 60 * time.Second
	}
	return &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Call invokes fn through the breaker. While OPEN it returns ErrOpen
// without invoking fn; once the recovery timeout has elapsed the next call
// transitions to HALF_OPEN and probes fn.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}

	err := fn(ctx)
	b.after(err)
	return err
}

// before checks admission and performs the lazy OPEN -> HALF_OPEN move.
func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.lastFailureTime) < b.recoveryTimeout {
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.state = StateHalfOpen
		b.successCount = 0
	}
	return nil
}

// after records the outcome and applies transitions.
func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		b.lastFailureTime = b.now()

		switch b.state {
		case StateHalfOpen:
			// A single probe failure reopens immediately.
			b.state = StateOpen
		case StateClosed:
			if b.failureCount >= b.failureThreshold {
				b.state = StateOpen
			}
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = StateClosed
			b.failureCount = 0
		}
	case StateClosed:
		b.failureCount = 0
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the API name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}
