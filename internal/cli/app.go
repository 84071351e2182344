package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/factweave/veridex/internal/apis"
	"github.com/factweave/veridex/internal/breaker"
	"github.com/factweave/veridex/internal/cache"
	"github.com/factweave/veridex/internal/classify"
	"github.com/factweave/veridex/internal/credibility"
	"github.com/factweave/veridex/internal/embed"
	"github.com/factweave/veridex/internal/factcheck"
	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/retrieve"
	"github.com/factweave/veridex/internal/search"
	"github.com/factweave/veridex/internal/util"
	"github.com/factweave/veridex/internal/worker"
)

// app holds the wired service graph for one command invocation. Every
// collaborator is constructed here and injected; nothing is a package
// global.
type app struct {
	cfg       *model.Config
	store     cache.Cache
	metrics   *cache.Metrics
	retriever *retrieve.Retriever
}

// newApp builds the full retrieval stack from resolved configuration.
func newApp(cfg *model.Config) (*app, error) {
	store := buildCache(cfg)
	metrics := cache.NewMetrics()

	breakers := breaker.NewRegistry(
		cfg.Breaker.FailureThreshold,
		cfg.Breaker.SuccessThreshold,
		cfg.Breaker.RecoveryTimeout,
	)
	client := apis.NewClient(cfg.HTTP, cfg.Breaker, breakers)
	registry := apis.DefaultRegistry(client)

	// Keyed adapters get their credentials from the environment; the
	// unkeyed placeholders from DefaultRegistry are replaced in place.
	if key := os.Getenv("FRED_API_KEY"); key != "" {
		registry.Register(apis.NewFREDAdapter(client, key))
	}
	if key := os.Getenv("COMPANIES_HOUSE_API_KEY"); key != "" {
		registry.Register(apis.NewCompaniesHouseAdapter(client, key))
	}

	searcher := apis.NewCachedSearcher(store, metrics)
	classifier := classify.NewClassifier(cfg.Classify.GeneralConfidenceCutoff)
	router := classify.NewKeywordRouter()
	cred := credibility.NewService(credibility.DefaultTiers())

	var embedProvider embed.Provider
	if cfg.Embeddings.Enabled && cfg.Embeddings.APIKey != "" {
		provider, err := embed.NewOpenAIProvider(cfg.Embeddings)
		if err != nil {
			return nil, fmt.Errorf("embeddings provider: %w", err)
		}
		embedProvider = provider
	}
	embeddings := embed.NewService(embedProvider, store, cfg.Cache.EmbeddingTTL)

	var web retrieve.WebEngine
	if cfg.Search.Endpoint != "" {
		robots := util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.Search.FetchTimeout)
		limiter := worker.NewLimiter(cfg.Search.RequestsPerSecond, 2)
		extractor := search.NewExtractor(cfg.Search, cfg.HTTP, robots, limiter)
		provider := search.NewCachedProvider(
			search.NewHTTPProvider(cfg.Search, cfg.HTTP),
			store, metrics, cfg.Cache.SearchTTL,
		)
		locator := search.NewLocator(embeddings, cfg.Retrieval)
		web = search.NewEngine(provider, extractor, locator, store, cfg)
	} else if cfg.Output.Verbose {
		fmt.Fprintln(os.Stderr, "No search endpoint configured; web evidence disabled")
	}

	enricher := factcheck.NewEnricher(cfg.HTTP, cfg.Retrieval, embeddings)

	retriever := retrieve.NewRetriever(
		classifier, router, registry, searcher, cred, web, enricher, store, cfg,
	)

	return &app{
		cfg:       cfg,
		store:     store,
		metrics:   metrics,
		retriever: retriever,
	}, nil
}

// buildCache returns the configured cache backend. Caching failures are
// never fatal; with caching disabled every lookup is a miss.
func buildCache(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return cache.Null{}
	}
	if cfg.Cache.Dir == "" {
		return cache.NewMemoryCache(cfg.Cache.SearchTTL, 10*time.Minute)
	}
	return cache.NewLayeredCache(cfg.Cache.SearchTTL, cfg.Cache.Dir, cfg.Cache.ExtractionTTL)
}

// printCacheMetrics renders hit/miss counters per label.
func (a *app) printCacheMetrics() {
	snap := a.metrics.Snapshot()
	if len(snap) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "Cache:")
	for label, counts := range snap {
		fmt.Fprintf(os.Stderr, "  %-20s %d hits / %d misses\n", label, counts[0], counts[1])
	}
}
