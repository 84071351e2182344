package search

import "github.com/factweave/veridex/internal/model"

// Status classifies what happened to one search candidate. The three
// non-drop outcomes are statically distinguishable so callers never infer
// the path taken from error text.
type Status string

const (
	// StatusExtracted means full page-content extraction succeeded and
	// the snippet text came from the page body.
	StatusExtracted Status = "extracted"

	// StatusFallbackBlocked means the site refused the fetch (403/429)
	// and the raw search-result snippet was substituted, flagged and
	// down-weighted.
	StatusFallbackBlocked Status = "fallback_blocked"

	// StatusFallbackTimeout means the fetch timed out and the raw
	// search-result snippet was substituted, flagged and down-weighted.
	StatusFallbackTimeout Status = "fallback_timeout"

	// StatusDropped means the candidate produced no usable evidence.
	StatusDropped Status = "dropped"
)

// Fallback reports whether the status is one of the two labeled snippet
// fallbacks.
func (s Status) Fallback() bool {
	return s == StatusFallbackBlocked || s == StatusFallbackTimeout
}

// Outcome is the result of putting one search candidate through the
// extraction-or-labeled-fallback policy. Snippet is nil exactly when
// Status is StatusDropped.
type Outcome struct {
	Status  Status
	Snippet *model.EvidenceSnippet
	Reason  string // Populated for drops and fallbacks
}

// Extracted builds a success outcome.
func Extracted(snippet *model.EvidenceSnippet) Outcome {
	return Outcome{Status: StatusExtracted, Snippet: snippet}
}

// FallbackUsed builds a labeled-fallback outcome.
func FallbackUsed(status Status, snippet *model.EvidenceSnippet, reason string) Outcome {
	return Outcome{Status: status, Snippet: snippet, Reason: reason}
}

// Dropped builds a dropped outcome.
func Dropped(reason string) Outcome {
	return Outcome{Status: StatusDropped, Reason: reason}
}
