package apis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const companiesHouseDefaultBaseURL = "https://api.company-information.service.gov.uk"

// CompaniesHouseAdapter wraps the UK Companies House company search API.
// Requires an API key; reports irrelevant without one.
type CompaniesHouseAdapter struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewCompaniesHouseAdapter creates the Companies House adapter.
func NewCompaniesHouseAdapter(client *Client, apiKey string) *CompaniesHouseAdapter {
	return &CompaniesHouseAdapter{client: client, baseURL: companiesHouseDefaultBaseURL, apiKey: apiKey}
}

func (a *CompaniesHouseAdapter) Name() string { return "Companies House" }

func (a *CompaniesHouseAdapter) CacheTTL() time.Duration { return 24 * time.Hour }

func (a *CompaniesHouseAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	if a.apiKey == "" {
		return false
	}
	return domain == model.DomainBusiness && jurisdiction == model.JurisdictionUK
}

type companiesHouseResponse struct {
	Items []struct {
		Title          string `json:"title"`
		CompanyNumber  string `json:"company_number"`
		CompanyStatus  string `json:"company_status"`
		DateOfCreation string `json:"date_of_creation"`
		AddressSnippet string `json:"address_snippet"`
		CompanyType    string `json:"company_type"`
	} `json:"items"`
}

func (a *CompaniesHouseAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	// Companies House authenticates via basic auth with the key as user;
	// the key is passed as a query credential through the shared client.
	endpoint := fmt.Sprintf("%s/search/companies?items_per_page=5&q=%s",
		a.baseURL, url.QueryEscape(query))

	var resp companiesHouseResponse
	if err := a.client.GetJSONWithBasicAuth(ctx, a.Name(), endpoint, a.apiKey, &resp); err != nil {
		return nil, fmt.Errorf("Companies House search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *CompaniesHouseAdapter) transform(resp companiesHouseResponse) []model.EvidenceRecord {
	records := make([]model.EvidenceRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Title == "" {
			continue
		}
		rec := model.EvidenceRecord{
			Title:  item.Title,
			URL:    "https://find-and-update.company-information.service.gov.uk/company/" + item.CompanyNumber,
			Source: "Companies House",
			Content: fmt.Sprintf("Registered company %s (%s), status %s, incorporated %s, %s",
				item.Title, item.CompanyNumber, item.CompanyStatus, item.DateOfCreation, item.AddressSnippet),
			Provider: a.Name(),
		}
		if t, err := time.Parse("2006-01-02", item.DateOfCreation); err == nil {
			rec.Published = &t
		}
		records = append(records, rec)
	}
	return records
}
