package retrieve

import (
	"net/url"
	"sort"
	"strings"

	"github.com/factweave/veridex/internal/model"
)

// Final ranking weights. Relevance dominates; credibility separates
// sources saying similar things.
const (
	relevanceWeight   = 0.6
	credibilityWeight = 0.4
)

func finalScore(s *model.EvidenceSnippet) float64 {
	return relevanceWeight*s.RelevanceScore + credibilityWeight*s.CredibilityScore
}

// rank orders snippets by weighted relevance/credibility, applies the
// per-domain cap, and truncates to topN. Input order does not matter; the
// sort is computed over the complete candidate set.
func rank(snippets []model.EvidenceSnippet, perDomainCap, topN int) []model.EvidenceSnippet {
	sort.SliceStable(snippets, func(i, j int) bool {
		return finalScore(&snippets[i]) > finalScore(&snippets[j])
	})

	if perDomainCap > 0 {
		perDomain := make(map[string]int)
		kept := snippets[:0]
		for _, s := range snippets {
			domain := snippetDomain(&s)
			if perDomain[domain] >= perDomainCap {
				continue
			}
			perDomain[domain]++
			kept = append(kept, s)
		}
		snippets = kept
	}

	if topN > 0 && len(snippets) > topN {
		snippets = snippets[:topN]
	}
	return snippets
}

// snippetDomain groups evidence for the per-domain cap. API evidence
// groups by provider so a chatty adapter cannot flood the set either.
func snippetDomain(s *model.EvidenceSnippet) string {
	if provider := s.Provider(); provider != "" {
		return "api:" + provider
	}
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Hostname() == "" {
		return s.Source
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
