package model

import "strings"

// Domain is the claim subject area used to route adapter selection.
type Domain string

const (
	DomainFinance  Domain = "Finance"
	DomainHealth   Domain = "Health"
	DomainLaw      Domain = "Law"
	DomainScience  Domain = "Science"
	DomainPolitics Domain = "Politics"
	DomainWeather  Domain = "Weather"
	DomainSports   Domain = "Sports"
	DomainBusiness Domain = "Business"
	DomainGeneral  Domain = "General"
)

// Jurisdiction is the geographic scope inferred from a claim.
type Jurisdiction string

const (
	JurisdictionUK     Jurisdiction = "UK"
	JurisdictionUS     Jurisdiction = "US"
	JurisdictionEU     Jurisdiction = "EU"
	JurisdictionGlobal Jurisdiction = "Global"
)

// ClassificationSource tags where a classification came from.
type ClassificationSource string

const (
	ClassSourcePattern  ClassificationSource = "pattern-cache"
	ClassSourceFallback ClassificationSource = "general-fallback"
)

// DomainClassification is the routing decision for one claim.
type DomainClassification struct {
	PrimaryDomain    Domain               `json:"primary_domain"`
	SecondaryDomains []Domain             `json:"secondary_domains,omitempty"` // At most two runners-up
	Jurisdiction     Jurisdiction         `json:"jurisdiction"`
	Confidence       int                  `json:"confidence"` // 0-100, margin-proportional
	KeyEntities      []string             `json:"key_entities,omitempty"`
	TemporalContext  string               `json:"temporal_context,omitempty"`
	EvidenceGuidance string               `json:"evidence_guidance,omitempty"`
	Source           ClassificationSource `json:"source"`
}

// CredibilityInfo is the tier assessment for one source URL.
type CredibilityInfo struct {
	Tier        string   `json:"tier"`
	Credibility float64  `json:"credibility"` // 0-1
	RiskFlags   []string `json:"risk_flags,omitempty"`
	AutoExclude bool     `json:"auto_exclude"`
	Reasoning   string   `json:"reasoning,omitempty"`
}

// RiskLevel derives an overall risk level from accumulated flags.
func (c CredibilityInfo) RiskLevel() string {
	high := map[string]bool{"state_sponsored": true, "conspiracy_theories": true, "fabricated_content": true}
	medium := map[string]bool{"partisan": true, "satire": true, "user_generated": true}

	level := "none"
	for _, f := range c.RiskFlags {
		switch {
		case high[f]:
			return "high"
		case medium[f]:
			level = "medium"
		case level == "none":
			level = "low"
		}
	}
	return level
}

// Warning produces a user-facing caution string for medium or higher risk.
func (c CredibilityInfo) Warning() string {
	switch c.RiskLevel() {
	case "high":
		return "This source has serious reliability concerns: " + strings.Join(c.RiskFlags, ", ")
	case "medium":
		return "Treat this source with caution: " + strings.Join(c.RiskFlags, ", ")
	default:
		return ""
	}
}
