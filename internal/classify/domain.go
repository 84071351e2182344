package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/factweave/veridex/internal/model"
)

// indicator is one domain-indicative keyword with a weight and an optional
// jurisdiction hint ("NHS" is Health evidence and a UK marker at once).
type indicator struct {
	term         string
	weight       int
	jurisdiction model.Jurisdiction
}

// Classifier determines claim domain and jurisdiction from claim text
// using deterministic keyword scoring. No network calls; a classification
// takes microseconds. Cross-domain claims intentionally degrade to General
// below the confidence cutoff — that is a documented limitation, not a
// defect, and the confidence score communicates it downstream.
type Classifier struct {
	indicators       map[model.Domain][]indicator
	countryMarkers   map[string]model.Jurisdiction
	yearPattern      *regexp.Regexp
	confidenceCutoff int
}

// NewClassifier builds a classifier with the built-in indicator tables.
func NewClassifier(confidenceCutoff int) *Classifier {
	if confidenceCutoff <= 0 {
		confidenceCutoff = 50
	}
	return &Classifier{
		indicators:       domainIndicators(),
		countryMarkers:   countryMarkers(),
		yearPattern:      regexp.MustCompile(`\b(19|20)\d{2}\b`),
		confidenceCutoff: confidenceCutoff,
	}
}

// DetectDomain classifies one claim. It always returns a usable
// classification; ambiguity lowers confidence rather than erroring.
func (c *Classifier) DetectDomain(claimText string) model.DomainClassification {
	lower := strings.ToLower(claimText)

	scores := make(map[model.Domain]int)
	jurisdictionVotes := make(map[model.Jurisdiction]int)
	var matchedEntities []string

	for domain, inds := range c.indicators {
		for _, ind := range inds {
			if !containsTerm(lower, ind.term) {
				continue
			}
			scores[domain] += ind.weight
			matchedEntities = append(matchedEntities, ind.term)
			if ind.jurisdiction != "" {
				jurisdictionVotes[ind.jurisdiction] += ind.weight
			}
		}
	}

	// Explicit country mentions outvote entity hints.
	for marker, j := range c.countryMarkers {
		if containsTerm(lower, marker) {
			jurisdictionVotes[j] += 3
		}
	}

	ranked := rankDomains(scores)
	jurisdiction := topJurisdiction(jurisdictionVotes)
	temporal := c.yearPattern.FindString(claimText)

	if len(ranked) == 0 {
		return model.DomainClassification{
			PrimaryDomain:   model.DomainGeneral,
			Jurisdiction:    jurisdiction,
			Confidence:      25,
			TemporalContext: temporal,
			Source:          model.ClassSourceFallback,
		}
	}

	primary := ranked[0]
	confidence := c.confidence(scores, ranked)

	if confidence < c.confidenceCutoff {
		// Multi-topic or weakly indicated claims route to General instead
		// of guessing a sole domain incorrectly.
		return model.DomainClassification{
			PrimaryDomain:    model.DomainGeneral,
			SecondaryDomains: secondaries(ranked, 2),
			Jurisdiction:     jurisdiction,
			Confidence:       confidence,
			KeyEntities:      matchedEntities,
			TemporalContext:  temporal,
			Source:           model.ClassSourceFallback,
		}
	}

	return model.DomainClassification{
		PrimaryDomain:    primary,
		SecondaryDomains: secondaries(ranked[1:], 2),
		Jurisdiction:     jurisdiction,
		Confidence:       confidence,
		KeyEntities:      matchedEntities,
		TemporalContext:  temporal,
		EvidenceGuidance: guidance(primary, jurisdiction),
		Source:           model.ClassSourcePattern,
	}
}

// confidence is proportional to the margin between the top and second
// domain scores, saturating at 95.
func (c *Classifier) confidence(scores map[model.Domain]int, ranked []model.Domain) int {
	top := scores[ranked[0]]
	second := 0
	if len(ranked) > 1 {
		second = scores[ranked[1]]
	}

	if top == 0 {
		return 25
	}

	margin := float64(top-second) / float64(top) // 0 when tied, 1 when unrivaled
	confidence := 50 + int(margin*45)
	if second == 0 && top >= 4 {
		confidence = 95
	}
	if confidence > 95 {
		confidence = 95
	}
	return confidence
}

func rankDomains(scores map[model.Domain]int) []model.Domain {
	domains := make([]model.Domain, 0, len(scores))
	for d := range scores {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if scores[domains[i]] != scores[domains[j]] {
			return scores[domains[i]] > scores[domains[j]]
		}
		return domains[i] < domains[j] // Deterministic tie-break
	})
	return domains
}

func secondaries(ranked []model.Domain, max int) []model.Domain {
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	if len(ranked) == 0 {
		return nil
	}
	out := make([]model.Domain, len(ranked))
	copy(out, ranked)
	return out
}

func topJurisdiction(votes map[model.Jurisdiction]int) model.Jurisdiction {
	best := model.JurisdictionGlobal
	bestVotes := 0
	for j, v := range votes {
		if v > bestVotes || (v == bestVotes && j < best && bestVotes > 0) {
			best = j
			bestVotes = v
		}
	}
	return best
}

func guidance(domain model.Domain, jurisdiction model.Jurisdiction) string {
	switch domain {
	case model.DomainFinance:
		return "prefer official statistics and central bank publications for " + string(jurisdiction)
	case model.DomainHealth:
		return "prefer health authority and peer-reviewed sources"
	case model.DomainLaw:
		return "prefer primary legislation and court records for " + string(jurisdiction)
	case model.DomainWeather:
		return "prefer meteorological service data; recency matters"
	case model.DomainScience:
		return "prefer peer-reviewed publications and citation indexes"
	default:
		return ""
	}
}

// containsTerm does whole-word matching for single words and plain
// substring matching for multi-word terms.
func containsTerm(lowerText, term string) bool {
	idx := strings.Index(lowerText, term)
	if idx < 0 {
		return false
	}
	if strings.ContainsRune(term, ' ') {
		return true
	}
	before := idx == 0 || !isWordChar(lowerText[idx-1])
	afterIdx := idx + len(term)
	after := afterIdx >= len(lowerText) || !isWordChar(lowerText[afterIdx])
	return before && after
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
