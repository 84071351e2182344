package worker

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/retrieve"
)

// mockRetriever records the claims and excluded domains it was asked
// about and returns one snippet per claim.
type mockRetriever struct {
	mu       sync.Mutex
	excluded []string
	claims   []string
}

func (m *mockRetriever) RetrieveForClaim(ctx context.Context, claim model.Claim, excludedDomain string) (retrieve.Result, *retrieve.Stats) {
	time.Sleep(5 * time.Millisecond) // Simulate work

	m.mu.Lock()
	m.claims = append(m.claims, claim.Text)
	m.excluded = append(m.excluded, excludedDomain)
	m.mu.Unlock()

	return retrieve.Result{
		Claim: claim,
		Evidence: []model.EvidenceSnippet{
			{Text: "evidence for " + claim.Text, Source: "example.com", RelevanceScore: 0.5},
		},
	}, &retrieve.Stats{}
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	mock := &mockRetriever{}
	processor := NewBatchProcessor(mock, 2, "origin.example")

	claims := []model.Claim{
		{Text: "claim one", Position: 0},
		{Text: "claim two", Position: 1},
		{Text: "claim three", Position: 2},
	}

	results := processor.ProcessClaims(context.Background(), claims)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Results come back ordered by claim position regardless of which
	// worker finished first.
	for i, res := range results {
		if res.Claim.Position != i {
			t.Errorf("result %d has position %d", i, res.Claim.Position)
		}
		if res.GetError() != nil {
			t.Errorf("unexpected error for %q: %v", res.Claim.Text, res.Err)
		}
		if len(res.Retrieved.Evidence) != 1 {
			t.Errorf("expected 1 snippet for %q, got %d", res.Claim.Text, len(res.Retrieved.Evidence))
		}
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	for _, excl := range mock.excluded {
		if excl != "origin.example" {
			t.Errorf("excluded domain not forwarded, got %q", excl)
		}
	}
}

func TestBatchProcessor_ProcessClaims_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockRetriever{}, 2, "")

	results := processor.ProcessClaims(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mockRetriever{}
	processor := NewBatchProcessor(mock, 2, "")

	results := processor.ProcessClaims(ctx, []model.Claim{{Text: "too late"}})

	// Jobs submitted after cancellation are dropped, so the retriever
	// must not have been called.
	mock.mu.Lock()
	calls := len(mock.claims)
	mock.mu.Unlock()
	if calls != 0 {
		t.Errorf("expected no retriever calls, got %d", calls)
	}
	for _, res := range results {
		if res.GetError() == nil {
			t.Errorf("expected context error, got nil")
		}
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	content := `UK unemployment is 5.2%
# comment line
Oil prices dropped 20% following the announcement

UK unemployment is 5.2%
The WHO reported 12 million cases   `

	tmpfile, err := os.CreateTemp("", "claims")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	claims, err := ReadClaimsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}

	want := []string{
		"UK unemployment is 5.2%",
		"Oil prices dropped 20% following the announcement",
		"The WHO reported 12 million cases",
	}
	if len(claims) != len(want) {
		t.Fatalf("expected %d claims, got %d", len(want), len(claims))
	}
	for i, cl := range claims {
		if cl.Text != want[i] {
			t.Errorf("claim %d: expected %q, got %q", i, want[i], cl.Text)
		}
		if cl.Position != i {
			t.Errorf("claim %d: expected position %d, got %d", i, i, cl.Position)
		}
	}
}

func TestReadClaimsFromFile_Missing(t *testing.T) {
	if _, err := ReadClaimsFromFile("/nonexistent/claims.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
