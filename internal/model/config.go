package model

import "time"

// Config is the complete runtime configuration. Every optional behavior is
// resolved here once at construction time rather than re-read per call.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Classify    ClassifyConfig    `yaml:"classify" mapstructure:"classify"`
	Breaker     BreakerConfig     `yaml:"breaker" mapstructure:"breaker"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" mapstructure:"embeddings"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound page and API fetching.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the layered best-effort cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`

	// Category TTLs. API response TTLs are per-adapter and not listed here.
	SearchTTL     time.Duration `yaml:"search_ttl" mapstructure:"search_ttl"`
	ExtractionTTL time.Duration `yaml:"extraction_ttl" mapstructure:"extraction_ttl"`
	EmbeddingTTL  time.Duration `yaml:"embedding_ttl" mapstructure:"embedding_ttl"`
	PipelineTTL   time.Duration `yaml:"pipeline_ttl" mapstructure:"pipeline_ttl"`
}

// SearchConfig controls web search and page-content extraction.
type SearchConfig struct {
	Endpoint           string        `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey             string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	MaxSources         int           `yaml:"max_sources" mapstructure:"max_sources"`
	FetchConcurrency   int           `yaml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	ExcludedDomains    []string      `yaml:"excluded_domains" mapstructure:"excluded_domains"`         // Always removed from queries (fact-check sites)
	RateLimitedDomains []string      `yaml:"rate_limited_domains" mapstructure:"rate_limited_domains"` // Skipped outright, extraction never succeeds
	RequestsPerSecond  float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// RetrievalConfig holds the orchestrator's feature flags and tuning knobs.
// Thresholds here are product-tuning values, deliberately config-exposed.
type RetrievalConfig struct {
	SemanticSnippets       bool `yaml:"semantic_snippets" mapstructure:"semantic_snippets"`
	PrimarySourceDetection bool `yaml:"primary_source_detection" mapstructure:"primary_source_detection"`
	SnippetFallback        bool `yaml:"snippet_fallback" mapstructure:"snippet_fallback"`
	QueryExpansion         bool `yaml:"query_expansion" mapstructure:"query_expansion"`

	TopN                 int     `yaml:"top_n" mapstructure:"top_n"`
	PerDomainCap         int     `yaml:"per_domain_cap" mapstructure:"per_domain_cap"`
	MinSnippetSimilarity float64 `yaml:"min_snippet_similarity" mapstructure:"min_snippet_similarity"`
	SnippetWindow        int     `yaml:"snippet_window" mapstructure:"snippet_window"` // Sentences of surrounding context

	FactcheckSimilarityThreshold float64 `yaml:"factcheck_similarity_threshold" mapstructure:"factcheck_similarity_threshold"`
	FactcheckPenaltyFactor       float64 `yaml:"factcheck_penalty_factor" mapstructure:"factcheck_penalty_factor"`

	APICredibility float64 `yaml:"api_credibility" mapstructure:"api_credibility"` // Fixed score for institutional sources
}

// ClassifyConfig tunes the domain/jurisdiction classifier.
type ClassifyConfig struct {
	GeneralConfidenceCutoff int `yaml:"general_confidence_cutoff" mapstructure:"general_confidence_cutoff"`
}

// BreakerConfig tunes the per-API circuit breakers and retry policy.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold" mapstructure:"success_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" mapstructure:"recovery_timeout"`
	MaxRetries       int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// EmbeddingsConfig selects the embedding model provider.
type EmbeddingsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Model   string `yaml:"model" mapstructure:"model"`
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	ClaimWorkers   int `yaml:"claim_workers" mapstructure:"claim_workers"`
	AdapterWorkers int `yaml:"adapter_workers" mapstructure:"adapter_workers"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "Veridex/0.2 (+https://github.com/factweave/veridex)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           "", // Resolved to ~/.veridex/cache at startup
			SearchTTL:     1 * time.Hour,
			ExtractionTTL: 24 * time.Hour,
			EmbeddingTTL:  7 * 24 * time.Hour,
			PipelineTTL:   3 * 24 * time.Hour,
		},
		Search: SearchConfig{
			MaxSources:       5,
			FetchConcurrency: 3,
			FetchTimeout:     15 * time.Second,
			ExcludedDomains: []string{
				"snopes.com", "politifact.com", "factcheck.org", "fullfact.org",
			},
			RateLimitedDomains: []string{
				"ft.com", "wsj.com", "bloomberg.com",
			},
			RequestsPerSecond: 1,
		},
		Retrieval: RetrievalConfig{
			SemanticSnippets:       true,
			PrimarySourceDetection: true,
			SnippetFallback:        true,
			QueryExpansion:         false,

			TopN:                 8,
			PerDomainCap:         2,
			MinSnippetSimilarity: 0.35,
			SnippetWindow:        1,

			FactcheckSimilarityThreshold: 0.45,
			FactcheckPenaltyFactor:       0.3,

			APICredibility: 0.95,
		},
		Classify: ClassifyConfig{
			GeneralConfidenceCutoff: 50,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 3,
			SuccessThreshold: 2,
			RecoveryTimeout:  60 * time.Second,
			MaxRetries:       3,
			RetryBaseDelay:   1 * time.Second,
		},
		Embeddings: EmbeddingsConfig{
			Enabled: true,
			Model:   "text-embedding-3-small",
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers:   4,
			AdapterWorkers: 6,
		},
		Output: OutputConfig{},
	}
}
