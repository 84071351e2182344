package apis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const openAlexDefaultBaseURL = "https://api.openalex.org"

// OpenAlexAdapter wraps the OpenAlex scholarly works index for academic
// evidence and citation counts.
type OpenAlexAdapter struct {
	client  *Client
	baseURL string
}

// NewOpenAlexAdapter creates the OpenAlex adapter.
func NewOpenAlexAdapter(client *Client) *OpenAlexAdapter {
	return &OpenAlexAdapter{client: client, baseURL: openAlexDefaultBaseURL}
}

func (a *OpenAlexAdapter) Name() string { return "OpenAlex" }

func (a *OpenAlexAdapter) CacheTTL() time.Duration { return 7 * 24 * time.Hour }

func (a *OpenAlexAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	switch domain {
	case model.DomainScience, model.DomainHealth:
		return true
	}
	return false
}

type openAlexResponse struct {
	Results []struct {
		Title           string `json:"title"`
		DOI             string `json:"doi"`
		PublicationDate string `json:"publication_date"`
		CitedByCount    int    `json:"cited_by_count"`
		PrimaryLocation struct {
			LandingPageURL string `json:"landing_page_url"`
			Source         struct {
				DisplayName string `json:"display_name"`
			} `json:"source"`
		} `json:"primary_location"`
	} `json:"results"`
}

func (a *OpenAlexAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	endpoint := fmt.Sprintf("%s/works?search=%s&per-page=5&sort=relevance_score:desc",
		a.baseURL, url.QueryEscape(query))

	var resp openAlexResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("OpenAlex search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *OpenAlexAdapter) transform(resp openAlexResponse) []model.EvidenceRecord {
	records := make([]model.EvidenceRecord, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Title == "" {
			continue
		}
		link := r.PrimaryLocation.LandingPageURL
		if link == "" {
			link = r.DOI
		}
		venue := r.PrimaryLocation.Source.DisplayName
		if venue == "" {
			venue = "OpenAlex"
		}
		rec := model.EvidenceRecord{
			Title:    r.Title,
			URL:      link,
			Source:   venue,
			Content:  fmt.Sprintf("Peer-indexed work: %q, published %s, cited by %d works", r.Title, r.PublicationDate, r.CitedByCount),
			Provider: a.Name(),
		}
		if t, err := time.Parse("2006-01-02", r.PublicationDate); err == nil {
			rec.Published = &t
		}
		records = append(records, rec)
	}
	return records
}
