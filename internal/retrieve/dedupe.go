package retrieve

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/factweave/veridex/internal/model"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)

// contentHash fingerprints snippet text for duplicate detection. Case,
// punctuation and whitespace differences between syndicated copies hash
// identically.
func contentHash(text string) string {
	normalized := strings.ToLower(text)
	normalized = nonAlnum.ReplaceAllString(normalized, "")
	normalized = strings.Join(strings.Fields(normalized), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// dedupe collapses snippets with identical content to one canonical
// representative. The canonical copy is the most credible one (relevance
// breaks ties); it is flagged as syndicated and keeps the duplicate URLs
// so provenance is not lost.
func dedupe(snippets []model.EvidenceSnippet) []model.EvidenceSnippet {
	byHash := make(map[string]int) // hash -> index into out
	var out []model.EvidenceSnippet

	for _, s := range snippets {
		hash := contentHash(s.Text)
		idx, seen := byHash[hash]
		if !seen {
			byHash[hash] = len(out)
			out = append(out, s)
			continue
		}

		canonical := &out[idx]
		loser := s
		if better(&s, canonical) {
			// Newcomer wins: it becomes canonical, inheriting the
			// previous canonical's duplicate trail.
			loser = *canonical
			s.Metadata = mergeDuplicateTrail(s.Metadata, canonical.Metadata)
			out[idx] = s
			canonical = &out[idx]
		}

		canonical.Metadata = appendDuplicate(canonical.Metadata, loser.URL)
		// Provenance survives collapse even when the canonical copy came
		// from the web and the duplicate from an API.
		if canonical.ExternalSourceProvider == "" && loser.ExternalSourceProvider != "" {
			canonical.ExternalSourceProvider = loser.ExternalSourceProvider
		}
	}
	return out
}

func better(a, b *model.EvidenceSnippet) bool {
	if a.CredibilityScore != b.CredibilityScore {
		return a.CredibilityScore > b.CredibilityScore
	}
	return a.RelevanceScore > b.RelevanceScore
}

func appendDuplicate(meta map[string]any, url string) map[string]any {
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["syndicated"] = true
	urls, _ := meta["duplicate_urls"].([]string)
	meta["duplicate_urls"] = append(urls, url)
	return meta
}

func mergeDuplicateTrail(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	if urls, ok := src["duplicate_urls"].([]string); ok && len(urls) > 0 {
		existing, _ := dst["duplicate_urls"].([]string)
		dst["duplicate_urls"] = append(existing, urls...)
		dst["syndicated"] = true
	}
	return dst
}
