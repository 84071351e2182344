package model

import "fmt"

// Claim represents a factual assertion handed to the retrieval engine.
// Claims are produced by an upstream extractor and are immutable here.
type Claim struct {
	Text            string    `json:"text"`                       // The claim text itself
	Position        int       `json:"position"`                   // Order in the source document (0-based)
	SubjectContext  string    `json:"subject_context,omitempty"`  // Topic context from the source article
	KeyEntities     []string  `json:"key_entities,omitempty"`     // Named entities, most salient first
	IsTimeSensitive bool      `json:"is_time_sensitive"`          // Whether recency matters for evidence
	TemporalMarkers []string  `json:"temporal_markers,omitempty"` // Raw temporal phrases ("last year", "in 2021")
	ClaimType       ClaimType `json:"claim_type,omitempty"`
}

// Key returns a stable identifier for this claim within one retrieval run.
func (c Claim) Key() string {
	text := c.Text
	if len(text) > 60 {
		text = text[:60]
	}
	return fmt.Sprintf("claim_%d_%s", c.Position, text)
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeFactual            ClaimType = "factual"
	ClaimTypeOpinion            ClaimType = "opinion"
	ClaimTypePrediction         ClaimType = "prediction"
	ClaimTypePersonalExperience ClaimType = "personal_experience"
	ClaimTypeLegal              ClaimType = "legal"
)
