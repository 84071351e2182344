package factcheck

import (
	"testing"
)

func TestIsFactcheckDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"snopes.com", true},
		{"www.snopes.com", true},
		{"es.snopes.com", true},
		{"politifact.com", true},
		{"fullfact.org", true},
		{"factcheck.org", true},
		{"apnews.com", false},
		{"bbc.co.uk", false},
		{"notsnopes.com", false},
	}
	for _, tt := range tests {
		if got := IsFactcheckDomain(tt.host); got != tt.want {
			t.Errorf("IsFactcheckDomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

const snopesPage = `<html><body>
<div class="claim_cont">A viral rendering shows the completed ballroom wing of the presidential residence.</div>
<div class="rating_title_wrap">Fake</div>
</body></html>`

const politifactPage = `<html><body>
<div class="m-statement__quote">Unemployment is at its lowest level in fifty years.</div>
<div class="m-statement__meter"><img alt="mostly-true" src="/meter.png"></div>
</body></html>`

const claimReviewPage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"ClaimReview",
 "claimReviewed":"The new vaccine alters human DNA.",
 "reviewRating":{"@type":"Rating","alternateName":"False"}}
</script>
</head><body><article><p>Our verdict below.</p></article></body></html>`

func TestParseSiteSelectors(t *testing.T) {
	v, ok := Parse(snopesPage, "www.snopes.com")
	if !ok {
		t.Fatal("snopes page not parsed")
	}
	if v.TargetClaim != "A viral rendering shows the completed ballroom wing of the presidential residence." {
		t.Errorf("TargetClaim = %q", v.TargetClaim)
	}
	if v.Rating != "Fake" {
		t.Errorf("Rating = %q", v.Rating)
	}
}

func TestParseRatingFromImageAlt(t *testing.T) {
	v, ok := Parse(politifactPage, "politifact.com")
	if !ok {
		t.Fatal("politifact page not parsed")
	}
	if v.Rating != "mostly-true" {
		t.Errorf("Rating = %q", v.Rating)
	}
}

func TestParseClaimReviewJSONLD(t *testing.T) {
	// Unknown publisher, but the page embeds schema.org ClaimReview.
	v, ok := Parse(claimReviewPage, "some-checker.example")
	if !ok {
		t.Fatal("ClaimReview JSON-LD not parsed")
	}
	if v.TargetClaim != "The new vaccine alters human DNA." {
		t.Errorf("TargetClaim = %q", v.TargetClaim)
	}
	if v.Rating != "False" {
		t.Errorf("Rating = %q", v.Rating)
	}
}

func TestParseUnrecognizedPage(t *testing.T) {
	if _, ok := Parse(`<html><body><p>Just a news story.</p></body></html>`, "snopes.com"); ok {
		t.Error("unparseable page should not yield a verdict")
	}
}

func TestNormalizeRating(t *testing.T) {
	tests := []struct {
		rating string
		want   float64
		ok     bool
	}{
		{"True", 1.0, true},
		{"Mostly True", 0.75, true},
		{"Half-True", 0.5, true},
		{"Mixture", 0.5, true},
		{"Mostly False", 0.25, true},
		{"False", 0.0, true},
		{"Pants on Fire!", 0.0, true},
		{"Fake", 0.0, true},
		{"Misleading", 0.25, true},
		{"Unproven", 0, false},
		{"Labeled Satire", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeRating(tt.rating)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("NormalizeRating(%q) = %v, %v; want %v, %v", tt.rating, got, ok, tt.want, tt.ok)
		}
	}
}
