package model

import (
	"strings"
	"time"
)

// EvidenceSnippet is the atomic unit of retrieved proof: a short,
// claim-relevant excerpt of source text plus provenance metadata.
type EvidenceSnippet struct {
	Text          string     `json:"text"`
	Source        string     `json:"source"` // Publisher name
	URL           string     `json:"url"`
	Title         string     `json:"title,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`

	RelevanceScore   float64 `json:"relevance_score"`             // Claim-specific, in [0,1] after ranking
	CredibilityScore float64 `json:"credibility_score,omitempty"` // In [0,1] when set
	WordCount        int     `json:"word_count"`                  // Whitespace-token count of Text

	// ExternalSourceProvider identifies the institutional API that produced
	// this snippet. Empty for general web evidence. Kept at the top level so
	// coverage statistics and downstream persistence never lose it.
	ExternalSourceProvider string `json:"external_source_provider,omitempty"`

	// Metadata is an open mapping: PDF page numbers, source-type
	// classification, fallback markers, fact-check enrichment fields.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SetText updates the snippet text and keeps WordCount in sync.
func (s *EvidenceSnippet) SetText(text string) {
	s.Text = text
	s.WordCount = len(strings.Fields(text))
}

// Meta returns the metadata map, allocating it on first use.
func (s *EvidenceSnippet) Meta() map[string]any {
	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}
	return s.Metadata
}

// MetaBool reads a boolean metadata field, false when absent.
func (s *EvidenceSnippet) MetaBool(key string) bool {
	if s.Metadata == nil {
		return false
	}
	v, _ := s.Metadata[key].(bool)
	return v
}

// MetaString reads a string metadata field, "" when absent.
func (s *EvidenceSnippet) MetaString(key string) string {
	if s.Metadata == nil {
		return ""
	}
	v, _ := s.Metadata[key].(string)
	return v
}

// Provider returns the provenance marker, tolerating historical formats
// that stored it only inside metadata.
func (s *EvidenceSnippet) Provider() string {
	if s.ExternalSourceProvider != "" {
		return s.ExternalSourceProvider
	}
	return s.MetaString("external_source_provider")
}

// SearchResult is a raw candidate from a web search provider. Its Snippet
// is the engine's meta-description, not page content: it must never be
// surfaced as evidence text without content extraction or an explicit,
// labeled fallback.
type SearchResult struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Snippet       string     `json:"snippet"`
	Source        string     `json:"source,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

// EvidenceRecord is the uniform shape every institutional API adapter
// translates its provider's native response into.
type EvidenceRecord struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Source    string     `json:"source"`
	Content   string     `json:"content"`
	Published *time.Time `json:"published,omitempty"`
	Provider  string     `json:"provider"` // API name, set by the adapter
}

// Snippet converts an adapter record into an EvidenceSnippet, stamping the
// top-level provenance field and the institutional credibility default.
func (r EvidenceRecord) Snippet(credibility float64) EvidenceSnippet {
	s := EvidenceSnippet{
		Source:                 r.Source,
		URL:                    r.URL,
		Title:                  r.Title,
		PublishedDate:          r.Published,
		CredibilityScore:       credibility,
		ExternalSourceProvider: r.Provider,
		Metadata: map[string]any{
			"external_source_provider": r.Provider,
			"source_type":              "institutional_api",
		},
	}
	s.SetText(r.Content)
	return s
}

// ClampScore bounds a score to [0,1].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
