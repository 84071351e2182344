package apis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const courtListenerDefaultBaseURL = "https://www.courtlistener.com/api/rest/v4"

// CourtListenerAdapter wraps the CourtListener opinion search API (US
// case law).
type CourtListenerAdapter struct {
	client  *Client
	baseURL string
}

// NewCourtListenerAdapter creates the CourtListener adapter.
func NewCourtListenerAdapter(client *Client) *CourtListenerAdapter {
	return &CourtListenerAdapter{client: client, baseURL: courtListenerDefaultBaseURL}
}

func (a *CourtListenerAdapter) Name() string { return "CourtListener" }

func (a *CourtListenerAdapter) CacheTTL() time.Duration { return 7 * 24 * time.Hour }

func (a *CourtListenerAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	if domain != model.DomainLaw {
		return false
	}
	return jurisdiction == model.JurisdictionUS || jurisdiction == model.JurisdictionGlobal
}

type courtListenerResponse struct {
	Results []struct {
		CaseName    string `json:"caseName"`
		AbsoluteURL string `json:"absolute_url"`
		Snippet     string `json:"snippet"`
		DateFiled   string `json:"dateFiled"`
		Court       string `json:"court"`
	} `json:"results"`
}

func (a *CourtListenerAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	endpoint := fmt.Sprintf("%s/search/?type=o&q=%s", a.baseURL, url.QueryEscape(query))

	var resp courtListenerResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("CourtListener search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *CourtListenerAdapter) transform(resp courtListenerResponse) []model.EvidenceRecord {
	var records []model.EvidenceRecord
	for _, r := range resp.Results {
		if len(records) == 5 {
			break
		}
		if r.CaseName == "" {
			continue
		}
		content := r.Snippet
		if content == "" {
			content = fmt.Sprintf("%s (%s)", r.CaseName, r.Court)
		}
		rec := model.EvidenceRecord{
			Title:    r.CaseName,
			URL:      "https://www.courtlistener.com" + r.AbsoluteURL,
			Source:   "CourtListener",
			Content:  content,
			Provider: a.Name(),
		}
		if t, err := time.Parse("2006-01-02", r.DateFiled); err == nil {
			rec.Published = &t
		}
		records = append(records, rec)
	}
	return records
}
