// Package retrieve orchestrates evidence retrieval: classify each claim,
// fan out to institutional API adapters and web extraction, enrich
// fact-check items, then dedupe, cap and rank the merged pool.
package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/factweave/veridex/internal/apis"
	"github.com/factweave/veridex/internal/cache"
	"github.com/factweave/veridex/internal/classify"
	"github.com/factweave/veridex/internal/credibility"
	"github.com/factweave/veridex/internal/model"
)

// WebEngine is the web evidence surface the retriever consumes.
type WebEngine interface {
	ExtractForClaim(ctx context.Context, claim model.Claim, maxSources int, excludedDomain string) ([]model.EvidenceSnippet, error)
}

// Enricher applies fact-check handling to one snippet.
type Enricher interface {
	Enrich(ctx context.Context, claimText string, snippet *model.EvidenceSnippet)
}

// Retriever is the evidence orchestrator. All collaborators are injected
// at construction; none are ambient globals.
type Retriever struct {
	classifier  *classify.Classifier
	router      *classify.KeywordRouter
	registry    *apis.Registry
	searcher    *apis.CachedSearcher
	credibility *credibility.Service
	web         WebEngine
	enricher    Enricher
	store       cache.Cache

	claimWorkers   int
	adapterWorkers int
	maxWebSources  int
	topN           int
	perDomainCap   int
	apiCredibility float64
	pipelineTTL    time.Duration
	verbose        bool
}

// NewRetriever wires the orchestrator. web and enricher may be nil, which
// disables web evidence and fact-check enrichment respectively; a nil
// store disables whole-result caching.
func NewRetriever(
	classifier *classify.Classifier,
	router *classify.KeywordRouter,
	registry *apis.Registry,
	searcher *apis.CachedSearcher,
	cred *credibility.Service,
	web WebEngine,
	enricher Enricher,
	store cache.Cache,
	cfg *model.Config,
) *Retriever {
	if store == nil {
		store = cache.Null{}
	}
	claimWorkers := cfg.Concurrency.ClaimWorkers
	if claimWorkers <= 0 {
		claimWorkers = 4
	}
	adapterWorkers := cfg.Concurrency.AdapterWorkers
	if adapterWorkers <= 0 {
		adapterWorkers = 4
	}
	topN := cfg.Retrieval.TopN
	if topN <= 0 {
		topN = 8
	}
	apiCredibility := cfg.Retrieval.APICredibility
	if apiCredibility <= 0 {
		apiCredibility = 0.9
	}
	pipelineTTL := cfg.Cache.PipelineTTL
	if pipelineTTL <= 0 {
		pipelineTTL = 3 * 24 * time.Hour
	}

	return &Retriever{
		classifier:     classifier,
		router:         router,
		registry:       registry,
		searcher:       searcher,
		credibility:    cred,
		web:            web,
		enricher:       enricher,
		store:          store,
		claimWorkers:   claimWorkers,
		adapterWorkers: adapterWorkers,
		maxWebSources:  cfg.Search.MaxSources,
		topN:           topN,
		perDomainCap:   cfg.Retrieval.PerDomainCap,
		apiCredibility: apiCredibility,
		pipelineTTL:    pipelineTTL,
		verbose:        cfg.Output.Verbose,
	}
}

// Result is the evidence set retrieved for one claim.
type Result struct {
	Claim          model.Claim                `json:"claim"`
	Classification model.DomainClassification `json:"classification"`
	Evidence       []model.EvidenceSnippet    `json:"evidence"`
}

// RetrieveForClaims runs retrieval for all claims with bounded fan-out and
// returns per-claim evidence keyed by claim key, plus aggregate stats. A
// claim with zero evidence stays in the map with an empty slice; that is a
// legitimate outcome, not an error.
func (r *Retriever) RetrieveForClaims(ctx context.Context, claims []model.Claim) (map[string]Result, *Stats, error) {
	stats := newStats()
	results := make([]Result, len(claims))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.claimWorkers)
	for i, claim := range claims {
		i, claim := i, claim
		g.Go(func() error {
			results[i] = r.retrieveOne(gctx, claim, "", stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	out := make(map[string]Result, len(results))
	for _, res := range results {
		out[res.Claim.Key()] = res
		stats.recordClaim(res.Evidence)
	}
	return out, stats, nil
}

// RetrieveForClaim retrieves evidence for a single claim. excludedDomain
// removes the claim's own publication domain from web results so an
// article cannot confirm itself.
func (r *Retriever) RetrieveForClaim(ctx context.Context, claim model.Claim, excludedDomain string) (Result, *Stats) {
	stats := newStats()
	res := r.retrieveOne(ctx, claim, excludedDomain, stats)
	stats.recordClaim(res.Evidence)
	return res, stats
}

func (r *Retriever) retrieveOne(ctx context.Context, claim model.Claim, excludedDomain string, stats *Stats) Result {
	key := r.resultKey(claim, excludedDomain)
	if data, found := r.store.Get(key); found {
		var cached Result
		if err := json.Unmarshal(data, &cached); err == nil && cached.Claim.Text == claim.Text {
			return cached
		}
	}

	classification := r.classifier.DetectDomain(claim.Text)

	pool := r.collectAPIEvidence(ctx, claim, classification, stats)
	pool = append(pool, r.collectWebEvidence(ctx, claim, excludedDomain)...)

	for i := range pool {
		if r.enricher != nil {
			r.enricher.Enrich(ctx, claim.Text, &pool[i])
		}
	}
	pool = r.applyCredibility(pool)
	pool = dedupe(pool)
	pool = rank(pool, r.perDomainCap, r.topN)

	res := Result{Claim: claim, Classification: classification, Evidence: pool}
	if data, err := json.Marshal(res); err == nil {
		_ = r.store.Set(key, data, r.pipelineTTL)
	}
	return res
}

// resultKey identifies one whole-pipeline result. The ranking knobs are
// part of the identity so a config change never serves stale rankings.
func (r *Retriever) resultKey(claim model.Claim, excludedDomain string) string {
	id := fmt.Sprintf("%s|%s|%d|%d|%.2f",
		claim.Text, excludedDomain, r.topN, r.perDomainCap, r.apiCredibility)
	return cache.Key(cache.CategoryPipeline, id)
}

// selectAdapters resolves the adapter set: domain routing over the primary
// and secondary domains, then additive keyword routing.
func (r *Retriever) selectAdapters(claim model.Claim, classification model.DomainClassification) []apis.Adapter {
	names := make(map[string]bool)
	var selected []string

	domains := append([]model.Domain{classification.PrimaryDomain}, classification.SecondaryDomains...)
	for _, domain := range domains {
		for _, a := range r.registry.AdaptersForDomain(domain, classification.Jurisdiction) {
			if !names[a.Name()] {
				names[a.Name()] = true
				selected = append(selected, a.Name())
			}
		}
	}
	if r.router != nil {
		// Route returns only the keyword-matched additions; it never
		// replaces the domain-routed set.
		selected = append(selected, r.router.Route(claim.Text, selected)...)
	}
	sort.Strings(selected)

	adapters := make([]apis.Adapter, 0, len(selected))
	for _, name := range selected {
		if a, ok := r.registry.Get(name); ok {
			adapters = append(adapters, a)
		}
	}
	return adapters
}

// collectAPIEvidence fans out to the selected adapters. Failures are
// isolated per adapter: one dead API never blocks the others or the claim.
func (r *Retriever) collectAPIEvidence(ctx context.Context, claim model.Claim, classification model.DomainClassification, stats *Stats) []model.EvidenceSnippet {
	adapters := r.selectAdapters(claim, classification)
	if len(adapters) == 0 {
		return nil
	}

	perAdapter := make([][]model.EvidenceSnippet, len(adapters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.adapterWorkers)
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			records, err := r.searcher.Search(gctx, adapter, claim.Text, classification.PrimaryDomain, classification.Jurisdiction)
			stats.recordCall(adapter.Name(), len(records), err)
			if err != nil {
				if r.verbose {
					fmt.Fprintf(os.Stderr, "adapter %s: %v\n", adapter.Name(), err)
				}
				return nil
			}
			snippets := make([]model.EvidenceSnippet, 0, len(records))
			for _, rec := range records {
				snippets = append(snippets, rec.Snippet(r.apiCredibility))
			}
			perAdapter[i] = snippets
			return nil
		})
	}
	_ = g.Wait()

	var pool []model.EvidenceSnippet
	for _, snippets := range perAdapter {
		pool = append(pool, snippets...)
	}
	return pool
}

func (r *Retriever) collectWebEvidence(ctx context.Context, claim model.Claim, excludedDomain string) []model.EvidenceSnippet {
	if r.web == nil {
		return nil
	}
	snippets, err := r.web.ExtractForClaim(ctx, claim, r.maxWebSources, excludedDomain)
	if err != nil {
		if r.verbose {
			fmt.Fprintf(os.Stderr, "web extraction: %v\n", err)
		}
		return nil
	}
	return snippets
}

// applyCredibility scores web evidence through the credibility service and
// drops auto-excluded sources (satire). API evidence keeps its fixed
// institutional score.
func (r *Retriever) applyCredibility(pool []model.EvidenceSnippet) []model.EvidenceSnippet {
	if r.credibility == nil {
		return pool
	}

	kept := pool[:0]
	for _, s := range pool {
		if s.Provider() != "" {
			kept = append(kept, s)
			continue
		}
		info := r.credibility.GetCredibility(s.Source, s.URL)
		if info.AutoExclude {
			continue
		}
		s.CredibilityScore = info.Credibility
		meta := s.Meta()
		meta["credibility_tier"] = info.Tier
		if warning := info.Warning(); warning != "" {
			meta["credibility_warning"] = warning
		}
		kept = append(kept, s)
	}
	return kept
}
