package apis

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const legislationDefaultBaseURL = "https://www.legislation.gov.uk"

// LegislationAdapter wraps the legislation.gov.uk Atom search feed (UK
// primary and secondary legislation). Statute text is about as slow-moving
// as data gets; responses stay fresh for two weeks.
type LegislationAdapter struct {
	client  *Client
	baseURL string
}

// NewLegislationAdapter creates the UK legislation adapter.
func NewLegislationAdapter(client *Client) *LegislationAdapter {
	return &LegislationAdapter{client: client, baseURL: legislationDefaultBaseURL}
}

func (a *LegislationAdapter) Name() string { return "Legislation.gov.uk" }

func (a *LegislationAdapter) CacheTTL() time.Duration { return 14 * 24 * time.Hour }

func (a *LegislationAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	return domain == model.DomainLaw && jurisdiction == model.JurisdictionUK
}

type legislationFeed struct {
	Entries []struct {
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
		Updated string `xml:"updated"`
		Links   []struct {
			Rel  string `xml:"rel,attr"`
			Href string `xml:"href,attr"`
		} `xml:"link"`
	} `xml:"entry"`
}

func (a *LegislationAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	endpoint := fmt.Sprintf("%s/search/data.feed?text=%s", a.baseURL, url.QueryEscape(query))

	body, err := a.client.Get(ctx, a.Name(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("legislation search: %w", err)
	}

	var feed legislationFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode legislation feed: %w", err)
	}
	return a.transform(feed), nil
}

func (a *LegislationAdapter) transform(feed legislationFeed) []model.EvidenceRecord {
	var records []model.EvidenceRecord
	for _, entry := range feed.Entries {
		if len(records) == 5 {
			break
		}
		href := ""
		for _, link := range entry.Links {
			if link.Rel == "" || link.Rel == "alternate" {
				href = link.Href
				break
			}
		}
		if href == "" || entry.Title == "" {
			continue
		}
		content := entry.Summary
		if content == "" {
			content = entry.Title
		}
		rec := model.EvidenceRecord{
			Title:    entry.Title,
			URL:      href,
			Source:   "legislation.gov.uk",
			Content:  content,
			Provider: a.Name(),
		}
		if t, err := time.Parse(time.RFC3339, entry.Updated); err == nil {
			rec.Published = &t
		}
		records = append(records, rec)
	}
	return records
}
