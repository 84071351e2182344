package apis

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const whoDefaultBaseURL = "https://ghoapi.azureedge.net/api"

// WHOAdapter wraps the WHO Global Health Observatory OData API. Indicator
// metadata changes rarely, so responses stay fresh for a week.
type WHOAdapter struct {
	client  *Client
	baseURL string
}

// NewWHOAdapter creates the WHO adapter.
func NewWHOAdapter(client *Client) *WHOAdapter {
	return &WHOAdapter{client: client, baseURL: whoDefaultBaseURL}
}

func (a *WHOAdapter) Name() string { return "WHO GHO" }

func (a *WHOAdapter) CacheTTL() time.Duration { return 7 * 24 * time.Hour }

func (a *WHOAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	return domain == model.DomainHealth
}

type whoResponse struct {
	Value []struct {
		IndicatorCode string `json:"IndicatorCode"`
		IndicatorName string `json:"IndicatorName"`
	} `json:"value"`
}

func (a *WHOAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	// OData contains() filter over indicator names, using the most
	// distinctive claim word to keep matches tight.
	filter := fmt.Sprintf("contains(IndicatorName,'%s')", odataEscape(primaryKeyword(query)))
	endpoint := fmt.Sprintf("%s/Indicator?$filter=%s&$top=5", a.baseURL, url.QueryEscape(filter))

	var resp whoResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("WHO GHO search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *WHOAdapter) transform(resp whoResponse) []model.EvidenceRecord {
	records := make([]model.EvidenceRecord, 0, len(resp.Value))
	for _, v := range resp.Value {
		records = append(records, model.EvidenceRecord{
			Title:    v.IndicatorName,
			URL:      "https://www.who.int/data/gho/data/indicators/indicator-details/GHO/" + strings.ToLower(v.IndicatorCode),
			Source:   "World Health Organization",
			Content:  fmt.Sprintf("WHO Global Health Observatory indicator: %s (%s)", v.IndicatorName, v.IndicatorCode),
			Provider: a.Name(),
		})
	}
	return records
}

// primaryKeyword picks the longest word as the filter term; health claims
// usually hinge on one distinctive noun.
func primaryKeyword(query string) string {
	best := ""
	for _, w := range strings.Fields(query) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) > len(best) {
			best = w
		}
	}
	return best
}

func odataEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
