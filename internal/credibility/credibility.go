package credibility

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/factweave/veridex/internal/model"
	"gopkg.in/yaml.v3"
)

// Tier is one named credibility bucket with a trust score and risk flags.
type Tier struct {
	Name         string        `yaml:"name"`
	Score        float64       `yaml:"score"`
	RiskFlags    []string      `yaml:"risk_flags,omitempty"`
	AutoExclude  bool          `yaml:"auto_exclude,omitempty"`
	Domains      []string      `yaml:"domains,omitempty"` // Exact or "*.suffix" wildcard
	PathPatterns []PathPattern `yaml:"path_patterns,omitempty"`
}

// PathPattern assigns a tier to a domain+path-prefix pair, checked before
// the domain-only match so the more specific rule wins.
type PathPattern struct {
	Domain     string `yaml:"domain"`
	PathPrefix string `yaml:"path_prefix"`
}

// Service maps a URL/domain to a credibility tier. Matching is static and
// configuration-driven; results are cached for the process lifetime.
type Service struct {
	tiers       []Tier
	defaultTier Tier

	mu    sync.RWMutex
	cache map[string]model.CredibilityInfo // Keyed by domain + first path segment
}

// NewService builds a credibility service from a tier table. A nil or
// empty table falls back to the built-in defaults.
func NewService(tiers []Tier) *Service {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Service{
		tiers: tiers,
		defaultTier: Tier{
			Name:  "general",
			Score: 0.5,
		},
		cache: make(map[string]model.CredibilityInfo),
	}
}

// LoadTiers reads a tier table from a YAML file.
func LoadTiers(path string) ([]Tier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier table: %w", err)
	}
	var tiers []Tier
	if err := yaml.Unmarshal(data, &tiers); err != nil {
		return nil, fmt.Errorf("parse tier table: %w", err)
	}
	return tiers, nil
}

// GetCredibility classifies a source URL. Unmatched domains land in the
// "general" tier with the default score — never an error.
func (s *Service) GetCredibility(sourceName, rawURL string) model.CredibilityInfo {
	domain, firstSeg := splitURL(rawURL)
	if domain == "" {
		return s.fallback(sourceName, "unparseable URL")
	}

	cacheKey := domain + "/" + firstSeg

	s.mu.RLock()
	if info, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return info
	}
	s.mu.RUnlock()

	info := s.classify(sourceName, domain, firstSeg)

	// Population races are harmless: both writers compute the same result.
	s.mu.Lock()
	s.cache[cacheKey] = info
	s.mu.Unlock()

	return info
}

// ClearCache drops the per-domain cache, for config reloads and tests.
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]model.CredibilityInfo)
	s.mu.Unlock()
}

func (s *Service) classify(sourceName, domain, firstSeg string) model.CredibilityInfo {
	// Path-specific patterns first: more specific wins.
	for _, tier := range s.tiers {
		for _, pp := range tier.PathPatterns {
			if domainMatches(domain, pp.Domain) && firstSeg == strings.Trim(pp.PathPrefix, "/") {
				return infoFromTier(tier, fmt.Sprintf("path pattern %s/%s", pp.Domain, pp.PathPrefix))
			}
		}
	}

	for _, tier := range s.tiers {
		for _, pattern := range tier.Domains {
			if domainMatches(domain, pattern) {
				return infoFromTier(tier, "domain pattern "+pattern)
			}
		}
	}

	return s.fallback(sourceName, "no configured pattern for "+domain)
}

func (s *Service) fallback(sourceName, reason string) model.CredibilityInfo {
	return model.CredibilityInfo{
		Tier:        s.defaultTier.Name,
		Credibility: s.defaultTier.Score,
		Reasoning:   reason,
	}
}

func infoFromTier(tier Tier, reason string) model.CredibilityInfo {
	return model.CredibilityInfo{
		Tier:        tier.Name,
		Credibility: tier.Score,
		RiskFlags:   tier.RiskFlags,
		AutoExclude: tier.AutoExclude,
		Reasoning:   reason,
	}
}

// domainMatches supports exact match and leading-wildcard suffix match
// ("*.edu" matches any .edu host, including nested subdomains).
func domainMatches(domain, pattern string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return domain == suffix || strings.HasSuffix(domain, "."+suffix)
	}
	return domain == pattern || strings.HasSuffix(domain, "."+pattern)
}

// splitURL returns the host (port and www stripped) and first path segment.
func splitURL(rawURL string) (string, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", ""
	}

	host := parsed.Host
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")

	path := strings.Trim(parsed.Path, "/")
	firstSeg := ""
	if path != "" {
		firstSeg = strings.SplitN(path, "/", 2)[0]
	}

	return host, firstSeg
}
