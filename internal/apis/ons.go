package apis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const onsDefaultBaseURL = "https://api.beta.ons.gov.uk/v1"

// ONSAdapter wraps the UK Office for National Statistics search API.
// Economic statistics move on a monthly release cycle, so responses stay
// fresh for a week.
type ONSAdapter struct {
	client  *Client
	baseURL string
}

// NewONSAdapter creates the ONS adapter.
func NewONSAdapter(client *Client) *ONSAdapter {
	return &ONSAdapter{client: client, baseURL: onsDefaultBaseURL}
}

func (a *ONSAdapter) Name() string { return "ONS" }

func (a *ONSAdapter) CacheTTL() time.Duration { return 7 * 24 * time.Hour }

func (a *ONSAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	if jurisdiction != model.JurisdictionUK {
		return false
	}
	switch domain {
	case model.DomainFinance, model.DomainBusiness, model.DomainGeneral:
		return true
	}
	return false
}

type onsResponse struct {
	Items []struct {
		Title       string `json:"title"`
		URI         string `json:"uri"`
		Summary     string `json:"summary"`
		ReleaseDate string `json:"release_date"`
	} `json:"items"`
}

func (a *ONSAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	endpoint := fmt.Sprintf("%s/search?content_type=bulletin&limit=5&q=%s",
		a.baseURL, url.QueryEscape(query))

	var resp onsResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("ONS search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *ONSAdapter) transform(resp onsResponse) []model.EvidenceRecord {
	records := make([]model.EvidenceRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Summary == "" {
			continue
		}
		rec := model.EvidenceRecord{
			Title:    item.Title,
			URL:      "https://www.ons.gov.uk" + item.URI,
			Source:   "Office for National Statistics",
			Content:  item.Summary,
			Provider: a.Name(),
		}
		if t, err := time.Parse(time.RFC3339, item.ReleaseDate); err == nil {
			rec.Published = &t
		}
		records = append(records, rec)
	}
	return records
}
