package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/factweave/veridex/internal/cache"
	"github.com/factweave/veridex/internal/model"
)

// Relevance assigned to labeled snippet fallbacks, strictly below the
// extraction floor so no fallback ever outranks extracted text.
const (
	extractionBaseline = 0.5
	fallbackRelevance  = 0.3
)

// Engine turns one claim into ranked, extracted web evidence.
type Engine struct {
	provider  Provider
	extractor *Extractor
	locator   *Locator

	cache         cache.Cache
	extractionTTL time.Duration

	excludedDomains  []string // Fact-check sites: excluded from queries, penalized in ranking
	fetchConcurrency int
	queryExpansion   bool
	snippetFallback  bool
	primarySource    bool
	factcheckPenalty float64
}

// NewEngine wires the web evidence pipeline. c may be nil.
func NewEngine(provider Provider, extractor *Extractor, locator *Locator, c cache.Cache, cfg *model.Config) *Engine {
	if c == nil {
		c = cache.Null{}
	}
	concurrency := cfg.Search.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Engine{
		provider:         provider,
		extractor:        extractor,
		locator:          locator,
		cache:            c,
		extractionTTL:    cfg.Cache.ExtractionTTL,
		excludedDomains:  cfg.Search.ExcludedDomains,
		fetchConcurrency: concurrency,
		queryExpansion:   cfg.Retrieval.QueryExpansion,
		snippetFallback:  cfg.Retrieval.SnippetFallback,
		primarySource:    cfg.Retrieval.PrimarySourceDetection,
		factcheckPenalty: cfg.Retrieval.FactcheckPenaltyFactor,
	}
}

// ExtractForClaim searches the web for the claim, extracts page content
// from ~2x maxSources candidates, and returns the ranked snippets. Partial
// results are normal; the error is non-nil only when search itself fails.
func (e *Engine) ExtractForClaim(ctx context.Context, claim model.Claim, maxSources int, excludedDomain string) ([]model.EvidenceSnippet, error) {
	if maxSources <= 0 {
		maxSources = 5
	}
	query := e.buildQuery(claim)

	// 2x candidates absorb extraction failures.
	results, err := e.provider.Search(ctx, query, maxSources*2)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	results = filterExcluded(results, excludedDomain)

	outcomes := e.extractAll(ctx, claim, results)

	var snippets []model.EvidenceSnippet
	for _, o := range outcomes {
		if o.Snippet != nil {
			snippets = append(snippets, *o.Snippet)
		}
	}
	e.rank(snippets)

	if len(snippets) > maxSources {
		snippets = snippets[:maxSources]
	}
	return snippets, nil
}

// buildQuery formulates the search query, always excluding fact-check
// domains at the query level to reduce circular self-citation.
func (e *Engine) buildQuery(claim model.Claim) string {
	parts := []string{claim.Text}
	if e.queryExpansion {
		if claim.SubjectContext != "" && !strings.Contains(strings.ToLower(claim.Text), strings.ToLower(claim.SubjectContext)) {
			parts = append(parts, claim.SubjectContext)
		}
		for _, entity := range claim.KeyEntities {
			if len(parts) >= 4 {
				break
			}
			if !strings.Contains(strings.ToLower(claim.Text), strings.ToLower(entity)) {
				parts = append(parts, entity)
			}
		}
		if claim.IsTimeSensitive && len(claim.TemporalMarkers) > 0 {
			parts = append(parts, claim.TemporalMarkers[0])
		}
	}
	for _, domain := range e.excludedDomains {
		parts = append(parts, "-site:"+domain)
	}
	return strings.Join(parts, " ")
}

// filterExcluded drops results from the claim's own publication domain so
// an article cannot confirm itself.
func filterExcluded(results []model.SearchResult, excludedDomain string) []model.SearchResult {
	if excludedDomain == "" {
		return results
	}
	excluded := strings.ToLower(strings.TrimPrefix(excludedDomain, "www."))

	kept := results[:0]
	for _, r := range results {
		if hostOf(r.URL) != excluded {
			kept = append(kept, r)
		}
	}
	return kept
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
}

// extractAll puts every candidate through the extraction-or-labeled-
// fallback policy under bounded concurrency. Order of outcomes matches the
// input; ranking later is order-independent anyway.
func (e *Engine) extractAll(ctx context.Context, claim model.Claim, results []model.SearchResult) []Outcome {
	outcomes := make([]Outcome, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fetchConcurrency)
	for i, result := range results {
		i, result := i, result
		g.Go(func() error {
			outcomes[i] = e.extractOne(gctx, claim, result)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// extractOne applies the policy to a single candidate: full extraction,
// labeled snippet fallback on blocked/timeout (when enabled), dropped
// otherwise. The search result's own snippet is never returned as
// extracted text.
func (e *Engine) extractOne(ctx context.Context, claim model.Claim, result model.SearchResult) Outcome {
	content, err := e.extractCached(ctx, result.URL)
	if err != nil {
		switch {
		case errors.Is(err, ErrBlocked):
			return e.fallback(StatusFallbackBlocked, result, err)
		case errors.Is(err, ErrFetchTimeout):
			return e.fallback(StatusFallbackTimeout, result, err)
		default:
			return Dropped(err.Error())
		}
	}

	snippetText, relevance := e.locator.Locate(ctx, claim.Text, content.Text)
	if snippetText == "" {
		return Dropped("no claim-relevant snippet located")
	}

	snippet := e.newSnippet(result, snippetText)
	snippet.RelevanceScore = model.ClampScore(extractionBaseline + relevance/2)
	snippet.Metadata["extraction_status"] = string(StatusExtracted)
	if len(content.PDFPages) > 0 {
		snippet.Metadata["pdf_pages"] = content.PDFPages
	}
	if content.Title != "" && snippet.Title == "" {
		snippet.Title = content.Title
	}
	return Extracted(snippet)
}

func (e *Engine) fallback(status Status, result model.SearchResult, cause error) Outcome {
	if !e.snippetFallback {
		return Dropped(cause.Error())
	}
	if strings.TrimSpace(result.Snippet) == "" {
		return Dropped("no search snippet available for fallback")
	}

	snippet := e.newSnippet(result, result.Snippet)
	snippet.RelevanceScore = fallbackRelevance
	snippet.Metadata["extraction_status"] = string(status)
	snippet.Metadata["extraction_fallback"] = true
	snippet.Metadata["fallback_reason"] = cause.Error()
	return FallbackUsed(status, snippet, cause.Error())
}

func (e *Engine) newSnippet(result model.SearchResult, text string) *model.EvidenceSnippet {
	source := result.Source
	if source == "" {
		source = hostOf(result.URL)
	}
	s := &model.EvidenceSnippet{
		Source:        source,
		URL:           result.URL,
		Title:         result.Title,
		PublishedDate: result.PublishedDate,
		Metadata:      map[string]any{"source_type": "web"},
	}
	s.SetText(text)
	return s
}

// extractCached serves extraction results from the cache; only successful
// extractions are cached.
func (e *Engine) extractCached(ctx context.Context, rawURL string) (*ExtractedContent, error) {
	key := cache.Key(cache.CategoryExtraction, rawURL)
	if data, ok := e.cache.Get(key); ok {
		var content ExtractedContent
		if err := json.Unmarshal(data, &content); err == nil && content.Text != "" {
			return &content, nil
		}
		_ = e.cache.Delete(key)
	}

	content, err := e.extractor.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(content); err == nil {
		_ = e.cache.Set(key, data, e.extractionTTL)
	}
	return content, nil
}

// rank orders snippets by composite score: base relevance, primary-source
// boost, heavy fact-check-site penalty, recency, length. Fact-check pages
// are deprioritized rather than removed; the fact-check parser handles
// them specially downstream.
func (e *Engine) rank(snippets []model.EvidenceSnippet) {
	now := time.Now()
	scores := make(map[string]float64, len(snippets))
	for i := range snippets {
		scores[snippets[i].URL] = e.compositeScore(&snippets[i], now)
	}
	sort.SliceStable(snippets, func(i, j int) bool {
		return scores[snippets[i].URL] > scores[snippets[j].URL]
	})
}

func (e *Engine) compositeScore(s *model.EvidenceSnippet, now time.Time) float64 {
	score := s.RelevanceScore

	if e.primarySource && isPrimarySource(s.URL) {
		score += 0.15
		s.Metadata["primary_source"] = true
	}
	if e.isFactcheckDomain(s.URL) {
		penalty := e.factcheckPenalty
		if penalty <= 0 || penalty >= 1 {
			penalty = 0.3
		}
		score *= penalty
		s.Metadata["is_factcheck"] = true
	}
	if s.PublishedDate != nil {
		if age := now.Sub(*s.PublishedDate); age < 30*24*time.Hour {
			score += 0.1
		} else if age < 365*24*time.Hour {
			score += 0.05
		}
	}
	if s.WordCount > 50 {
		score += 0.05
	}
	return score
}

// Primary sources are original research and official publications, not
// reporting about them.
func isPrimarySource(rawURL string) bool {
	host := hostOf(rawURL)
	for _, suffix := range []string{".gov", ".gov.uk", ".edu", ".ac.uk", ".int"} {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	for _, h := range []string{"doi.org", "nature.com", "sciencedirect.com", "pubmed.ncbi.nlm.nih.gov", "arxiv.org"} {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (e *Engine) isFactcheckDomain(rawURL string) bool {
	host := hostOf(rawURL)
	for _, d := range e.excludedDomains {
		d = strings.ToLower(strings.TrimPrefix(d, "www."))
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
