package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/retrieve"
)

// ClaimRetriever is the retrieval surface a batch job drives.
type ClaimRetriever interface {
	RetrieveForClaim(ctx context.Context, claim model.Claim, excludedDomain string) (retrieve.Result, *retrieve.Stats)
}

// ClaimJob retrieves evidence for one claim.
type ClaimJob struct {
	Claim          model.Claim
	ExcludedDomain string
	Retriever      ClaimRetriever
}

// Execute runs the retrieval for the job's claim.
func (j *ClaimJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &ClaimResult{Claim: j.Claim, Err: err}
	}
	res, stats := j.Retriever.RetrieveForClaim(ctx, j.Claim, j.ExcludedDomain)
	return &ClaimResult{Claim: j.Claim, Retrieved: res, Stats: stats}
}

// ClaimResult is the outcome of one claim job.
type ClaimResult struct {
	Claim     model.Claim
	Retrieved retrieve.Result
	Stats     *retrieve.Stats
	Err       error
}

// GetError returns the job error, if any.
func (r *ClaimResult) GetError() error {
	return r.Err
}

// BatchProcessor retrieves evidence for many claims concurrently.
type BatchProcessor struct {
	retriever      ClaimRetriever
	concurrency    int
	excludedDomain string
}

// NewBatchProcessor creates a batch processor running at most
// concurrency retrievals at once.
func NewBatchProcessor(retriever ClaimRetriever, concurrency int, excludedDomain string) *BatchProcessor {
	return &BatchProcessor{
		retriever:      retriever,
		concurrency:    concurrency,
		excludedDomain: excludedDomain,
	}
}

// ProcessClaims retrieves evidence for every claim and returns the
// results in claim-position order.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.Claim) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, claim := range claims {
		pool.Submit(&ClaimJob{
			Claim:          claim,
			ExcludedDomain: b.excludedDomain,
			Retriever:      b.retriever,
		})
	}

	results := pool.Wait()

	out := make([]*ClaimResult, len(results))
	for i, res := range results {
		out[i] = res.(*ClaimResult)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Claim.Position < out[j].Claim.Position
	})
	return out
}

// ProcessFile reads claims from a file and retrieves evidence for each.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads one claim per line. Blank lines and lines
// starting with '#' are skipped and duplicate texts are dropped; the
// claim position is the line's order among kept lines.
func ReadClaimsFromFile(filePath string) ([]model.Claim, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []model.Claim
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		claims = append(claims, model.Claim{
			Text:     line,
			Position: len(claims),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return claims, nil
}
