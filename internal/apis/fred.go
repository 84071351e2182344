package apis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const fredDefaultBaseURL = "https://api.stlouisfed.org/fred"

// FREDAdapter wraps the St. Louis Fed economic data API (US economic
// series). Requires an API key; without one the adapter reports itself as
// irrelevant so routing skips it silently.
type FREDAdapter struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewFREDAdapter creates the FRED adapter.
func NewFREDAdapter(client *Client, apiKey string) *FREDAdapter {
	return &FREDAdapter{client: client, baseURL: fredDefaultBaseURL, apiKey: apiKey}
}

func (a *FREDAdapter) Name() string { return "FRED" }

func (a *FREDAdapter) CacheTTL() time.Duration { return 7 * 24 * time.Hour }

func (a *FREDAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	if a.apiKey == "" {
		return false
	}
	if jurisdiction != model.JurisdictionUS && jurisdiction != model.JurisdictionGlobal {
		return false
	}
	return domain == model.DomainFinance || domain == model.DomainBusiness
}

type fredResponse struct {
	Series []struct {
		ID               string `json:"id"`
		Title            string `json:"title"`
		Notes            string `json:"notes"`
		LastUpdated      string `json:"last_updated"`
		ObservationEnd   string `json:"observation_end"`
		ObservationStart string `json:"observation_start"`
	} `json:"seriess"`
}

func (a *FREDAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	endpoint := fmt.Sprintf("%s/series/search?search_text=%s&limit=5&file_type=json&api_key=%s",
		a.baseURL, url.QueryEscape(query), url.QueryEscape(a.apiKey))

	var resp fredResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("FRED search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *FREDAdapter) transform(resp fredResponse) []model.EvidenceRecord {
	records := make([]model.EvidenceRecord, 0, len(resp.Series))
	for _, s := range resp.Series {
		content := s.Notes
		if content == "" {
			content = fmt.Sprintf("%s (observations %s to %s)", s.Title, s.ObservationStart, s.ObservationEnd)
		}
		rec := model.EvidenceRecord{
			Title:    s.Title,
			URL:      "https://fred.stlouisfed.org/series/" + s.ID,
			Source:   "Federal Reserve Economic Data",
			Content:  content,
			Provider: a.Name(),
		}
		if t, err := time.Parse("2006-01-02 15:04:05-07", s.LastUpdated); err == nil {
			rec.Published = &t
		}
		records = append(records, rec)
	}
	return records
}
