// Package factcheck handles evidence that comes from professional
// fact-checking sites. Such a page is about a claim someone else made,
// which is frequently not the claim currently being checked, so the parsed
// target claim is similarity-gated before the page counts as corroborating
// evidence.
package factcheck

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Verdict is what a fact-check page asserts: the claim it examined and the
// rating it assigned.
type Verdict struct {
	TargetClaim string
	Rating      string
}

// Known fact-check publishers with site-specific page structure.
var factcheckDomains = map[string]bool{
	"snopes.com":     true,
	"politifact.com": true,
	"factcheck.org":  true,
	"fullfact.org":   true,
	"apnews.com":     false, // AP hub pages are news, not ClaimReview
}

// IsFactcheckDomain reports whether host belongs to a known fact-check
// publisher. Subdomains match their parent.
func IsFactcheckDomain(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if v, ok := factcheckDomains[host]; ok {
		return v
	}
	for domain, v := range factcheckDomains {
		if v && strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// selectorSet is one attempt at recovering a verdict: site markup changes
// often, so each site carries several generations of selectors tried in
// order.
type selectorSet struct {
	claim  string
	rating string
}

var siteSelectors = map[string][]selectorSet{
	"snopes.com": {
		{claim: ".claim_cont", rating: ".rating_title_wrap"},
		{claim: "div.claim-text", rating: "div.rating-label"},
		{claim: "h1", rating: ".media-rating"},
	},
	"politifact.com": {
		{claim: ".m-statement__quote", rating: ".m-statement__meter img[alt]"},
		{claim: ".statement__text", rating: ".meter img[alt]"},
	},
	"factcheck.org": {
		{claim: ".entry-content blockquote", rating: ".entry-content strong"},
	},
	"fullfact.org": {
		{claim: ".claim-conclusion .claim", rating: ".claim-conclusion .conclusion"},
		{claim: "blockquote.claim", rating: "blockquote.conclusion"},
	},
}

// Parse recovers the verdict from a fact-check page. Site-specific
// selectors run first, then a generic ClaimReview JSON-LD scan. ok is
// false when no parser recognized the page.
func Parse(htmlContent, host string) (Verdict, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return Verdict{}, false
	}

	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	for domain, sets := range siteSelectors {
		if host != domain && !strings.HasSuffix(host, "."+domain) {
			continue
		}
		for _, set := range sets {
			v, ok := parseWithSelectors(doc, set)
			if ok {
				return v, true
			}
		}
	}
	return parseClaimReview(doc)
}

func parseWithSelectors(doc *goquery.Document, set selectorSet) (Verdict, bool) {
	claim := strings.TrimSpace(doc.Find(set.claim).First().Text())

	var rating string
	ratingSel := doc.Find(set.rating).First()
	if ratingSel.Length() > 0 {
		rating = strings.TrimSpace(ratingSel.Text())
		if rating == "" {
			// Meter images carry the rating in alt text.
			rating, _ = ratingSel.Attr("alt")
			rating = strings.TrimSpace(rating)
		}
	}

	if claim == "" || rating == "" {
		return Verdict{}, false
	}
	return Verdict{TargetClaim: claim, Rating: rating}, true
}

// claimReview is the schema.org ClaimReview JSON-LD shape most fact-check
// publishers embed regardless of visible markup.
type claimReview struct {
	Type          string `json:"@type"`
	ClaimReviewed string `json:"claimReviewed"`
	ReviewRating  struct {
		AlternateName string `json:"alternateName"`
	} `json:"reviewRating"`
	Graph []claimReview `json:"@graph"`
}

func parseClaimReview(doc *goquery.Document) (Verdict, bool) {
	var verdict Verdict
	var found bool

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()

		var single claimReview
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			if v, ok := fromClaimReview(single); ok {
				verdict, found = v, true
				return false
			}
		}

		var list []claimReview
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			for _, cr := range list {
				if v, ok := fromClaimReview(cr); ok {
					verdict, found = v, true
					return false
				}
			}
		}
		return true
	})
	return verdict, found
}

func fromClaimReview(cr claimReview) (Verdict, bool) {
	if cr.Type == "ClaimReview" && cr.ClaimReviewed != "" && cr.ReviewRating.AlternateName != "" {
		return Verdict{TargetClaim: cr.ClaimReviewed, Rating: cr.ReviewRating.AlternateName}, true
	}
	for _, nested := range cr.Graph {
		if v, ok := fromClaimReview(nested); ok {
			return v, true
		}
	}
	return Verdict{}, false
}

// NormalizeRating maps a publisher's textual rating onto [0,1] where 1 is
// fully true. ok is false for ratings with no truth direction (satire,
// unproven).
func NormalizeRating(rating string) (float64, bool) {
	r := strings.ToLower(strings.TrimSpace(rating))
	switch {
	case r == "true" || r == "correct" || r == "accurate" || r == "correct attribution":
		return 1.0, true
	case strings.Contains(r, "mostly true") || strings.Contains(r, "mostly correct"):
		return 0.75, true
	case strings.Contains(r, "half true") || strings.Contains(r, "half-true") ||
		strings.Contains(r, "mixture") || strings.Contains(r, "mixed"):
		return 0.5, true
	case strings.Contains(r, "mostly false"):
		return 0.25, true
	case strings.Contains(r, "pants on fire") || r == "false" || r == "fake" ||
		strings.Contains(r, "incorrect") || strings.Contains(r, "fabricated"):
		return 0.0, true
	case strings.Contains(r, "misleading") || strings.Contains(r, "distorts"):
		return 0.25, true
	default:
		return 0, false
	}
}
