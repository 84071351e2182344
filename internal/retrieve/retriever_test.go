package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/factweave/veridex/internal/apis"
	"github.com/factweave/veridex/internal/cache"
	"github.com/factweave/veridex/internal/classify"
	"github.com/factweave/veridex/internal/credibility"
	"github.com/factweave/veridex/internal/model"
)

type stubAdapter struct {
	name    string
	domains map[model.Domain]bool
	records []model.EvidenceRecord
	err     error
	calls   int
}

func (a *stubAdapter) Name() string            { return a.name }
func (a *stubAdapter) CacheTTL() time.Duration { return time.Hour }

func (a *stubAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	return a.domains[domain]
}

func (a *stubAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.records, nil
}

type stubWeb struct {
	snippets []model.EvidenceSnippet
	err      error
	excluded []string
}

func (w *stubWeb) ExtractForClaim(ctx context.Context, claim model.Claim, maxSources int, excludedDomain string) ([]model.EvidenceSnippet, error) {
	w.excluded = append(w.excluded, excludedDomain)
	if w.err != nil {
		return nil, w.err
	}
	return w.snippets, nil
}

func webSnippet(url, text string, relevance float64) model.EvidenceSnippet {
	s := model.EvidenceSnippet{URL: url, RelevanceScore: relevance, Metadata: map[string]any{"source_type": "web"}}
	s.SetText(text)
	return s
}

func newTestRetriever(t *testing.T, registry *apis.Registry, web WebEngine) *Retriever {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Retrieval.TopN = 8
	cfg.Retrieval.PerDomainCap = 2

	return NewRetriever(
		classify.NewClassifier(cfg.Classify.GeneralConfidenceCutoff),
		classify.NewKeywordRouter(),
		registry,
		apis.NewCachedSearcher(cache.NewMemoryCache(time.Hour, 0), nil),
		credibility.NewService(credibility.DefaultTiers()),
		web,
		nil,
		nil,
		cfg,
	)
}

func financeRecord(title string) model.EvidenceRecord {
	return model.EvidenceRecord{
		Title:    title,
		URL:      "https://www.ons.gov.uk/" + title,
		Source:   "Office for National Statistics",
		Content:  "UK unemployment was 5.2% in the three months to June, " + title + ".",
		Provider: "ONS",
	}
}

func TestRetrieveForClaimsMergesAPIAndWeb(t *testing.T) {
	registry := apis.NewRegistry()
	registry.Register(&stubAdapter{
		name:    "ONS",
		domains: map[model.Domain]bool{model.DomainFinance: true, model.DomainGeneral: true},
		records: []model.EvidenceRecord{financeRecord("bulletin-a")},
	})
	web := &stubWeb{snippets: []model.EvidenceSnippet{
		webSnippet("https://www.theguardian.com/uk-unemployment", "Unemployment figures released today show a rise to 5.2% overall.", 0.7),
	}}
	r := newTestRetriever(t, registry, web)

	claims := []model.Claim{{Text: "UK unemployment is 5.2%", Position: 0}}
	results, stats, err := r.RetrieveForClaims(context.Background(), claims)
	if err != nil {
		t.Fatalf("RetrieveForClaims() error = %v", err)
	}

	res, ok := results[claims[0].Key()]
	if !ok {
		t.Fatal("claim key missing from results")
	}
	if res.Classification.PrimaryDomain != model.DomainFinance {
		t.Errorf("PrimaryDomain = %v", res.Classification.PrimaryDomain)
	}
	if len(res.Evidence) != 2 {
		t.Fatalf("got %d evidence items, want 2: %+v", len(res.Evidence), res.Evidence)
	}

	var apiItems, webItems int
	for _, s := range res.Evidence {
		// Score bounds hold for every ranked snippet.
		if s.RelevanceScore < 0 || s.RelevanceScore > 1 || s.CredibilityScore < 0 || s.CredibilityScore > 1 {
			t.Errorf("scores out of bounds: %+v", s)
		}
		if s.Provider() != "" {
			apiItems++
			if s.Provider() != "ONS" {
				t.Errorf("Provider() = %q", s.Provider())
			}
		} else {
			webItems++
		}
	}
	if apiItems != 1 || webItems != 1 {
		t.Errorf("apiItems = %d, webItems = %d", apiItems, webItems)
	}

	if stats.APICalls != 1 || stats.APIResults != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Coverage() != 1 {
		t.Errorf("Coverage() = %v", stats.Coverage())
	}
	if share := stats.APIShare(); share != 0.5 {
		t.Errorf("APIShare() = %v, want 0.5", share)
	}
}

// Provenance survives dedup, ranking and top-N truncation for every
// API-sourced item.
func TestProvenanceSurvivesFullPipeline(t *testing.T) {
	var records []model.EvidenceRecord
	for _, title := range []string{"bulletin-a", "bulletin-b", "bulletin-c"} {
		records = append(records, financeRecord(title))
	}
	registry := apis.NewRegistry()
	registry.Register(&stubAdapter{
		name:    "ONS",
		domains: map[model.Domain]bool{model.DomainFinance: true},
		records: records,
	})
	r := newTestRetriever(t, registry, nil)

	res, _ := r.RetrieveForClaim(context.Background(), model.Claim{Text: "UK unemployment is 5.2%"}, "")
	if len(res.Evidence) == 0 {
		t.Fatal("no evidence returned")
	}
	for _, s := range res.Evidence {
		if s.Provider() != "ONS" {
			t.Errorf("provenance lost: %+v", s)
		}
		if s.ExternalSourceProvider != "ONS" {
			t.Errorf("top-level provider field lost: %+v", s)
		}
	}
}

// One dead adapter never blocks the others.
func TestAdapterFailureIsIsolated(t *testing.T) {
	registry := apis.NewRegistry()
	registry.Register(&stubAdapter{
		name:    "Broken",
		domains: map[model.Domain]bool{model.DomainFinance: true},
		err:     errors.New("connection refused"),
	})
	registry.Register(&stubAdapter{
		name:    "ONS",
		domains: map[model.Domain]bool{model.DomainFinance: true},
		records: []model.EvidenceRecord{financeRecord("bulletin-a")},
	})
	r := newTestRetriever(t, registry, nil)

	res, stats := r.RetrieveForClaim(context.Background(), model.Claim{Text: "UK unemployment is 5.2%"}, "")
	if len(res.Evidence) != 1 {
		t.Fatalf("got %d evidence items, want 1 from the healthy adapter", len(res.Evidence))
	}
	if stats.APIErrors != 1 {
		t.Errorf("APIErrors = %d, want 1", stats.APIErrors)
	}
}

func TestZeroEvidenceIsALegitimateOutcome(t *testing.T) {
	r := newTestRetriever(t, apis.NewRegistry(), nil)

	claims := []model.Claim{{Text: "an utterly unclassifiable remark", Position: 3}}
	results, stats, err := r.RetrieveForClaims(context.Background(), claims)
	if err != nil {
		t.Fatalf("error = %v, zero evidence must not be an error", err)
	}
	res := results[claims[0].Key()]
	if len(res.Evidence) != 0 {
		t.Errorf("Evidence = %+v", res.Evidence)
	}
	if stats.Coverage() != 0 {
		t.Errorf("Coverage() = %v", stats.Coverage())
	}
}

func TestSatireSourcesAreExcluded(t *testing.T) {
	web := &stubWeb{snippets: []model.EvidenceSnippet{
		webSnippet("https://www.theonion.com/economy-story", "Area economy reportedly doing things again.", 0.9),
		webSnippet("https://www.bbc.co.uk/news/economy", "Official data shows the economy grew 0.3% last quarter.", 0.7),
	}}
	r := newTestRetriever(t, apis.NewRegistry(), web)

	res, _ := r.RetrieveForClaim(context.Background(), model.Claim{Text: "the economy grew 0.3% last quarter"}, "")
	for _, s := range res.Evidence {
		if s.URL == "https://www.theonion.com/economy-story" {
			t.Error("satire source survived retrieval")
		}
	}
	if len(res.Evidence) != 1 {
		t.Errorf("got %d evidence items, want 1", len(res.Evidence))
	}
}

func TestExcludedDomainIsForwardedToWeb(t *testing.T) {
	web := &stubWeb{}
	r := newTestRetriever(t, apis.NewRegistry(), web)

	_, _ = r.RetrieveForClaim(context.Background(), model.Claim{Text: "some claim"}, "example.com")
	if len(web.excluded) != 1 || web.excluded[0] != "example.com" {
		t.Errorf("excluded domains seen by web engine = %v", web.excluded)
	}
}

// Keyword routing adds the market-data adapter for a politics claim about
// oil prices without displacing the domain-routed adapters.
func TestKeywordRoutedAdapterJoinsSelection(t *testing.T) {
	commodities := &stubAdapter{
		name:    "Commodities",
		domains: map[model.Domain]bool{}, // Never domain-routed
		records: []model.EvidenceRecord{{
			Title:    "Reference rates",
			URL:      "https://frankfurter.dev",
			Source:   "Frankfurter",
			Content:  "USD reference rates for the period.",
			Provider: "Commodities",
		}},
	}
	registry := apis.NewRegistry()
	registry.Register(commodities)
	r := newTestRetriever(t, registry, nil)

	res, _ := r.RetrieveForClaim(context.Background(),
		model.Claim{Text: "Oil prices dropped 20% following the announcement"}, "")
	if commodities.calls != 1 {
		t.Fatalf("commodities adapter calls = %d, want 1 via keyword routing", commodities.calls)
	}
	if len(res.Evidence) != 1 || res.Evidence[0].Provider() != "Commodities" {
		t.Errorf("Evidence = %+v", res.Evidence)
	}
}

func TestKeywordRoutingAddsToDomainSelection(t *testing.T) {
	ons := &stubAdapter{
		name:    "ONS",
		domains: map[model.Domain]bool{model.DomainFinance: true},
		records: []model.EvidenceRecord{financeRecord("labour-market")},
	}
	commodities := &stubAdapter{
		name:    "Commodities",
		domains: map[model.Domain]bool{}, // Never domain-routed
		records: []model.EvidenceRecord{{
			Title:    "Reference rates",
			URL:      "https://frankfurter.dev",
			Source:   "Frankfurter",
			Content:  "USD reference rates for the period.",
			Provider: "Commodities",
		}},
	}
	registry := apis.NewRegistry()
	registry.Register(ons)
	registry.Register(commodities)
	r := newTestRetriever(t, registry, nil)

	// The claim is domain-routed to ONS and keyword-routed to the
	// commodities adapter; the router adds to the selection, it never
	// replaces it.
	res, _ := r.RetrieveForClaim(context.Background(),
		model.Claim{Text: "UK unemployment is 5.2% while oil prices dropped sharply"}, "")

	if ons.calls != 1 {
		t.Errorf("ONS adapter calls = %d, want 1 via domain routing", ons.calls)
	}
	if commodities.calls != 1 {
		t.Errorf("commodities adapter calls = %d, want 1 via keyword routing", commodities.calls)
	}

	providers := make(map[string]bool)
	for _, s := range res.Evidence {
		providers[s.Provider()] = true
	}
	if !providers["ONS"] || !providers["Commodities"] {
		t.Errorf("evidence providers = %v, want both ONS and Commodities", providers)
	}
}

func TestWholeResultIsCached(t *testing.T) {
	adapter := &stubAdapter{
		name:    "ONS",
		domains: map[model.Domain]bool{model.DomainFinance: true},
		records: []model.EvidenceRecord{financeRecord("bulletin-a")},
	}
	registry := apis.NewRegistry()
	registry.Register(adapter)
	web := &stubWeb{snippets: []model.EvidenceSnippet{
		webSnippet("https://www.theguardian.com/uk-unemployment", "Unemployment figures released today show a rise to 5.2% overall.", 0.7),
	}}

	cfg := model.DefaultConfig()
	r := NewRetriever(
		classify.NewClassifier(cfg.Classify.GeneralConfidenceCutoff),
		classify.NewKeywordRouter(),
		registry,
		apis.NewCachedSearcher(cache.Null{}, nil), // API layer uncached, isolates the result cache
		credibility.NewService(credibility.DefaultTiers()),
		web,
		nil,
		cache.NewMemoryCache(time.Hour, 0),
		cfg,
	)

	claim := model.Claim{Text: "UK unemployment is 5.2%"}
	first, _ := r.RetrieveForClaim(context.Background(), claim, "")
	second, _ := r.RetrieveForClaim(context.Background(), claim, "")

	if adapter.calls != 1 {
		t.Errorf("adapter calls = %d, want 1 (second run served from result cache)", adapter.calls)
	}
	if got := len(web.excluded); got != 1 {
		t.Errorf("web engine calls = %d, want 1", got)
	}
	if len(second.Evidence) != len(first.Evidence) {
		t.Fatalf("cached evidence count = %d, want %d", len(second.Evidence), len(first.Evidence))
	}
	for i := range first.Evidence {
		if second.Evidence[i].URL != first.Evidence[i].URL ||
			second.Evidence[i].RelevanceScore != first.Evidence[i].RelevanceScore {
			t.Errorf("cached item %d diverged: %+v vs %+v", i, second.Evidence[i], first.Evidence[i])
		}
	}

	// A different excluded domain is a different result identity.
	r.RetrieveForClaim(context.Background(), claim, "theguardian.com")
	if adapter.calls != 2 {
		t.Errorf("adapter calls = %d, want 2 after identity change", adapter.calls)
	}
}
