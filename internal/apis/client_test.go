package apis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/factweave/veridex/internal/breaker"
	"github.com/factweave/veridex/internal/model"
)

func newTestClient(t *testing.T, breakerCfg model.BreakerConfig) (*Client, *[]time.Duration) {
	t.Helper()
	httpCfg := model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "veridex-test",
		MaxBodyBytes: 1_000_000,
	}
	breakers := breaker.NewRegistry(
		breakerCfg.FailureThreshold, breakerCfg.SuccessThreshold, breakerCfg.RecoveryTimeout)
	c := NewClient(httpCfg, breakerCfg, breakers)

	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &slept
}

func defaultBreakerCfg() model.BreakerConfig {
	return model.BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		RecoveryTimeout:  60 * time.Second,
		MaxRetries:       3,
		RetryBaseDelay:   time.Second,
	}
}

func TestClientRetriesServerErrorsWithBackoff(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(t, defaultBreakerCfg())

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), "test-api", srv.URL, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if !out.OK {
		t.Error("expected decoded body after retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	// Backoff doubles from the base delay.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *slept, want)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, defaultBreakerCfg())

	_, err := c.Get(context.Background(), "test-api", srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("error = %v, want StatusError 404", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no backoff for non-retryable error", *slept)
	}
}

func TestClientRetriesRateLimiting(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, defaultBreakerCfg())

	if _, err := c.Get(context.Background(), "test-api", srv.URL); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (429 is retryable)", calls)
	}
}

// An exhausted retry cycle counts as a single breaker failure, so opening
// a breaker with threshold 3 takes 3 full retry cycles, not 3 requests.
func TestClientExhaustedRetriesCountOnceAgainstBreaker(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := defaultBreakerCfg()
	c, _ := newTestClient(t, cfg)

	for i := 0; i < cfg.FailureThreshold; i++ {
		if _, err := c.Get(context.Background(), "flaky-api", srv.URL); err == nil {
			t.Fatal("expected failure")
		}
	}
	if wantCalls := cfg.FailureThreshold * cfg.MaxRetries; calls != wantCalls {
		t.Errorf("calls = %d, want %d", calls, wantCalls)
	}

	// Breaker is now open: the next call is rejected without hitting the
	// network.
	before := calls
	_, err := c.Get(context.Background(), "flaky-api", srv.URL)
	if !errors.Is(err, breaker.ErrOpen) {
		t.Errorf("error = %v, want ErrOpen", err)
	}
	if calls != before {
		t.Error("open breaker must not dispatch requests")
	}
}

func TestClientBreakersAreIndependentPerAPI(t *testing.T) {
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer badSrv.Close()
	goodSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer goodSrv.Close()

	cfg := defaultBreakerCfg()
	c, _ := newTestClient(t, cfg)

	for i := 0; i < cfg.FailureThreshold; i++ {
		_, _ = c.Get(context.Background(), "bad-api", badSrv.URL)
	}
	if _, err := c.Get(context.Background(), "bad-api", badSrv.URL); !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("bad-api error = %v, want ErrOpen", err)
	}

	if _, err := c.Get(context.Background(), "good-api", goodSrv.URL); err != nil {
		t.Errorf("good-api should be unaffected, got %v", err)
	}
}

func TestClientSetsUserAgentAndBasicAuth(t *testing.T) {
	var gotUA, gotUser string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotUser, _, gotAuth = r.BasicAuth()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, defaultBreakerCfg())

	var out map[string]any
	if err := c.GetJSONWithBasicAuth(context.Background(), "auth-api", srv.URL, "secret-key", &out); err != nil {
		t.Fatalf("GetJSONWithBasicAuth() error = %v", err)
	}
	if gotUA != "veridex-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if !gotAuth || gotUser != "secret-key" {
		t.Errorf("basic auth user = %q (present=%v), want secret-key", gotUser, gotAuth)
	}
}

func TestClientMalformedJSONIsPermanent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c, slept := newTestClient(t, defaultBreakerCfg())

	var out map[string]any
	if err := c.GetJSON(context.Background(), "test-api", srv.URL, &out); err == nil {
		t.Fatal("expected decode error")
	}
	if calls != 1 || len(*slept) != 0 {
		t.Errorf("calls = %d, sleeps = %v; malformed bodies must not retry", calls, *slept)
	}
}
