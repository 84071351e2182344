package apis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const worldBankDefaultBaseURL = "https://search.worldbank.org/api/v2"

// WorldBankAdapter wraps the World Bank document search API for global
// development and economic evidence.
type WorldBankAdapter struct {
	client  *Client
	baseURL string
}

// NewWorldBankAdapter creates the World Bank adapter.
func NewWorldBankAdapter(client *Client) *WorldBankAdapter {
	return &WorldBankAdapter{client: client, baseURL: worldBankDefaultBaseURL}
}

func (a *WorldBankAdapter) Name() string { return "World Bank" }

func (a *WorldBankAdapter) CacheTTL() time.Duration { return 7 * 24 * time.Hour }

func (a *WorldBankAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	if jurisdiction != model.JurisdictionGlobal {
		return false
	}
	return domain == model.DomainFinance || domain == model.DomainBusiness
}

// The documents field is an object keyed by document id, not an array.
type worldBankResponse struct {
	Documents map[string]json.RawMessage `json:"documents"`
}

type worldBankDocument struct {
	Title    string `json:"display_title"`
	URL      string `json:"url"`
	Abstract struct {
		Text string `json:"cdata!"`
	} `json:"abstracts"`
	DocDate string `json:"docdt"`
}

func (a *WorldBankAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	endpoint := fmt.Sprintf("%s/wds?format=json&rows=5&qterm=%s",
		a.baseURL, url.QueryEscape(query))

	var resp worldBankResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("World Bank search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *WorldBankAdapter) transform(resp worldBankResponse) []model.EvidenceRecord {
	var records []model.EvidenceRecord
	for id, raw := range resp.Documents {
		if id == "facets" {
			continue
		}
		var doc worldBankDocument
		if err := json.Unmarshal(raw, &doc); err != nil || doc.Title == "" {
			continue
		}
		content := doc.Abstract.Text
		if content == "" {
			content = doc.Title
		}
		rec := model.EvidenceRecord{
			Title:    doc.Title,
			URL:      doc.URL,
			Source:   "World Bank",
			Content:  content,
			Provider: a.Name(),
		}
		if t, err := time.Parse("2006-01-02T15:04:05Z", doc.DocDate); err == nil {
			rec.Published = &t
		}
		records = append(records, rec)
	}
	return records
}
