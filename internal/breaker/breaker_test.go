package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failing(ctx context.Context) error    { return errBoom }
func succeeding(ctx context.Context) error { return nil }

// newTestBreaker returns a breaker with a controllable clock.
func newTestBreaker(failures, successes int, recovery time.Duration) (*Breaker, *time.Time) {
	b := New("test-api", failures, successes, recovery)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := b.Call(ctx, failing); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected wrapped error, got %v", i, err)
		}
		if b.State() != StateClosed {
			t.Fatalf("call %d: expected closed before threshold, got %v", i, b.State())
		}
	}

	// Exactly N consecutive failures opens the breaker.
	if err := b.Call(ctx, failing); !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("expected open after 3 failures, got %v", b.State())
	}
}

func TestBreaker_RejectsWhileOpen(t *testing.T) {
	b, now := newTestBreaker(3, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = b.Call(ctx, failing)
	}

	invoked := false
	*now = now.Add(30 * time.Second) // Still inside the recovery window
	err := b.Call(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	if !IsOpen(err) {
		t.Errorf("expected breaker-open error, got %v", err)
	}
	if invoked {
		t.Error("wrapped function must not be invoked while open")
	}
}

func TestBreaker_HalfOpenAfterRecoveryTimeout(t *testing.T) {
	b, now := newTestBreaker(3, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = b.Call(ctx, failing)
	}

	invoked := false
	*now = now.Add(time.Minute) // Recovery elapsed: next call probes
	err := b.Call(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	if err != nil {
		t.Errorf("expected probe to pass through, got %v", err)
	}
	if !invoked {
		t.Error("expected wrapped function to be invoked in half-open")
	}
	if b.State() != StateHalfOpen {
		t.Errorf("expected half-open after one probe success, got %v", b.State())
	}
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b, now := newTestBreaker(3, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = b.Call(ctx, failing)
	}
	*now = now.Add(time.Minute)

	_ = b.Call(ctx, succeeding)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after first success, got %v", b.State())
	}

	_ = b.Call(ctx, succeeding)
	if b.State() != StateClosed {
		t.Errorf("expected closed after success threshold, got %v", b.State())
	}

	// Failure count must be reset: two failures alone must not reopen.
	_ = b.Call(ctx, failing)
	_ = b.Call(ctx, failing)
	if b.State() != StateClosed {
		t.Errorf("expected closed with reset failure count, got %v", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(3, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = b.Call(ctx, failing)
	}
	*now = now.Add(time.Minute)

	_ = b.Call(ctx, failing) // Single probe failure
	if b.State() != StateOpen {
		t.Errorf("expected open after half-open failure, got %v", b.State())
	}
}

func TestBreaker_FiveFailuresRejectAfterThree(t *testing.T) {
	// An adapter failing 5 consecutive times with threshold 3: calls 4 and
	// 5 are rejected without a network attempt.
	b, now := newTestBreaker(3, 2, time.Minute)
	ctx := context.Background()

	attempts := 0
	call := func(ctx context.Context) error {
		attempts++
		return errBoom
	}

	for i := 0; i < 5; i++ {
		_ = b.Call(ctx, call)
	}

	if attempts != 3 {
		t.Errorf("expected 3 real attempts, got %d", attempts)
	}

	// Once the recovery timeout elapses the next call is attempted.
	*now = now.Add(time.Minute)
	_ = b.Call(ctx, call)
	if attempts != 4 {
		t.Errorf("expected probe attempt after recovery, got %d attempts", attempts)
	}
}

func TestRegistry_LazyPerName(t *testing.T) {
	r := NewRegistry(3, 2, time.Minute)

	a := r.Get("ons")
	b := r.Get("fred")
	if a == b {
		t.Error("expected distinct breakers per API name")
	}
	if r.Get("ons") != a {
		t.Error("expected same instance on repeated access")
	}

	states := r.States()
	if len(states) != 2 {
		t.Errorf("expected 2 registered breakers, got %d", len(states))
	}
	if states["ons"] != StateClosed {
		t.Errorf("expected new breaker closed, got %v", states["ons"])
	}
}

func TestIsOpen_Wrapped(t *testing.T) {
	b, _ := newTestBreaker(1, 1, time.Minute)
	_ = b.Call(context.Background(), failing)

	err := b.Call(context.Background(), succeeding)
	if !IsOpen(err) {
		t.Fatalf("expected breaker-open error, got %v", err)
	}
	if IsOpen(errBoom) {
		t.Error("unrelated errors must not report as breaker-open")
	}
}
