package factcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/factweave/veridex/internal/embed"
	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/util"
)

// Enricher applies the fact-check policy to evidence items from known
// fact-check publishers: parse the page's target claim and rating, then
// gate on similarity to the claim actually being checked.
type Enricher struct {
	http       *http.Client
	userAgent  string
	maxBytes   int64
	embeddings *embed.Service
	threshold  float64
	penalty    float64
}

// NewEnricher builds the enricher. embeddings may be disabled; similarity
// then falls back to lexical overlap.
func NewEnricher(httpCfg model.HTTPConfig, retrievalCfg model.RetrievalConfig, embeddings *embed.Service) *Enricher {
	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	threshold := retrievalCfg.FactcheckSimilarityThreshold
	if threshold <= 0 {
		threshold = 0.45
	}
	penalty := retrievalCfg.FactcheckPenaltyFactor
	if penalty <= 0 || penalty >= 1 {
		penalty = 0.3
	}
	return &Enricher{
		http: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		userAgent:  httpCfg.UserAgent,
		maxBytes:   maxBytes,
		embeddings: embeddings,
		threshold:  threshold,
		penalty:    penalty,
	}
}

// Enrich mutates snippet in place when its URL belongs to a fact-check
// publisher. An unparseable page still gets is_factcheck set so ranking
// deprioritizes it; only a parsed, similar target claim upgrades the item
// to corroborating evidence.
func (e *Enricher) Enrich(ctx context.Context, claimText string, snippet *model.EvidenceSnippet) {
	parsed, err := url.Parse(snippet.URL)
	if err != nil || !IsFactcheckDomain(parsed.Hostname()) {
		return
	}
	if snippet.Metadata == nil {
		snippet.Metadata = make(map[string]any)
	}
	snippet.Metadata["is_factcheck"] = true

	page, err := e.fetchPage(ctx, snippet.URL)
	if err != nil {
		return
	}
	verdict, ok := Parse(page, parsed.Hostname())
	if !ok {
		return
	}
	e.applyVerdict(ctx, claimText, snippet, verdict)
}

// EnrichParsed applies the gating policy with an already-parsed verdict,
// used when the page was fetched elsewhere.
func (e *Enricher) EnrichParsed(ctx context.Context, claimText string, snippet *model.EvidenceSnippet, verdict Verdict) {
	if snippet.Metadata == nil {
		snippet.Metadata = make(map[string]any)
	}
	snippet.Metadata["is_factcheck"] = true
	e.applyVerdict(ctx, claimText, snippet, verdict)
}

func (e *Enricher) applyVerdict(ctx context.Context, claimText string, snippet *model.EvidenceSnippet, verdict Verdict) {
	snippet.Metadata["factcheck_target_claim"] = verdict.TargetClaim
	snippet.Metadata["factcheck_rating"] = verdict.Rating
	if normalized, ok := NormalizeRating(verdict.Rating); ok {
		snippet.Metadata["factcheck_rating_value"] = normalized
	}

	similarity := e.similarity(ctx, claimText, verdict.TargetClaim)
	snippet.Metadata["factcheck_similarity"] = similarity

	if similarity < e.threshold {
		// The fact-check is about a different claim. Down-weight
		// severely rather than letting it masquerade as refutation or
		// confirmation of the current one.
		snippet.RelevanceScore = model.ClampScore(snippet.RelevanceScore * e.penalty)
		snippet.Metadata["factcheck_low_relevance"] = true
	} else {
		snippet.Metadata["factcheck_relevant"] = true
	}
}

func (e *Enricher) similarity(ctx context.Context, a, b string) float64 {
	if e.embeddings != nil && e.embeddings.Enabled() {
		if sim, ok := e.embeddings.Similarity(ctx, a, b); ok {
			return sim
		}
	}
	return lexicalSimilarity(a, b)
}

// lexicalSimilarity is the embedding-free degrade path: Jaccard overlap of
// content words.
func lexicalSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	var intersection int
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

func (e *Enricher) fetchPage(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch fact-check page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fact-check page returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
