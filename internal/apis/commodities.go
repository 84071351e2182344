package apis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const commoditiesDefaultBaseURL = "https://api.frankfurter.dev/v1"

// CommoditiesAdapter covers market-data claims (commodity and currency
// movements) via the Frankfurter reference-rate API. It is never selected
// by domain classification directly — the keyword router adds it whenever
// a claim mentions market prices, regardless of primary domain.
type CommoditiesAdapter struct {
	client  *Client
	baseURL string
}

// NewCommoditiesAdapter creates the market-data adapter.
func NewCommoditiesAdapter(client *Client) *CommoditiesAdapter {
	return &CommoditiesAdapter{client: client, baseURL: commoditiesDefaultBaseURL}
}

func (a *CommoditiesAdapter) Name() string { return "Commodities" }

func (a *CommoditiesAdapter) CacheTTL() time.Duration { return time.Hour }

// IsRelevantForDomain is always false: this adapter is keyword-routed only.
func (a *CommoditiesAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	return false
}

type frankfurterResponse struct {
	Date  string             `json:"date"`
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (a *CommoditiesAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	// Reference rates against USD give the market context for price-move
	// claims even when the claim names a commodity rather than a currency.
	endpoint := fmt.Sprintf("%s/latest?base=USD&symbols=GBP,EUR,JPY,CHF", a.baseURL)

	var resp frankfurterResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("market data: %w", err)
	}
	return a.transform(resp, query), nil
}

func (a *CommoditiesAdapter) transform(resp frankfurterResponse, query string) []model.EvidenceRecord {
	if len(resp.Rates) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(resp.Rates))
	for symbol := range resp.Rates {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	pairs := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		pairs = append(pairs, fmt.Sprintf("%s %.4f", symbol, resp.Rates[symbol]))
	}

	rec := model.EvidenceRecord{
		Title:  fmt.Sprintf("Reference exchange rates, %s", resp.Date),
		URL:    "https://frankfurter.dev",
		Source: "Frankfurter (ECB reference rates)",
		Content: fmt.Sprintf("Market reference context for %q: USD base rates on %s: %s",
			query, resp.Date, strings.Join(pairs, ", ")),
		Provider: a.Name(),
	}
	if t, err := time.Parse("2006-01-02", resp.Date); err == nil {
		rec.Published = &t
	}
	return []model.EvidenceRecord{rec}
}
