package apis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const sportsDefaultBaseURL = "https://www.thesportsdb.com/api/v1/json/3"

// SportsAdapter wraps TheSportsDB team search API for sports-stat claims.
type SportsAdapter struct {
	client  *Client
	baseURL string
}

// NewSportsAdapter creates the sports-stats adapter.
func NewSportsAdapter(client *Client) *SportsAdapter {
	return &SportsAdapter{client: client, baseURL: sportsDefaultBaseURL}
}

func (a *SportsAdapter) Name() string { return "TheSportsDB" }

func (a *SportsAdapter) CacheTTL() time.Duration { return 24 * time.Hour }

func (a *SportsAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	return domain == model.DomainSports
}

type sportsResponse struct {
	Teams []struct {
		Name        string `json:"strTeam"`
		League      string `json:"strLeague"`
		Stadium     string `json:"strStadium"`
		Description string `json:"strDescriptionEN"`
		Formed      string `json:"intFormedYear"`
		Website     string `json:"strWebsite"`
	} `json:"teams"`
}

func (a *SportsAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	endpoint := fmt.Sprintf("%s/searchteams.php?t=%s", a.baseURL, url.QueryEscape(query))

	var resp sportsResponse
	if err := a.client.GetJSON(ctx, a.Name(), endpoint, &resp); err != nil {
		return nil, fmt.Errorf("sports search: %w", err)
	}
	return a.transform(resp), nil
}

func (a *SportsAdapter) transform(resp sportsResponse) []model.EvidenceRecord {
	var records []model.EvidenceRecord
	for _, team := range resp.Teams {
		if len(records) == 3 {
			break
		}
		if team.Name == "" {
			continue
		}
		content := team.Description
		if content == "" {
			content = fmt.Sprintf("%s, %s, plays at %s, formed %s",
				team.Name, team.League, team.Stadium, team.Formed)
		}
		site := team.Website
		if site == "" {
			site = "https://www.thesportsdb.com"
		} else if len(site) < 8 || site[:4] != "http" {
			site = "https://" + site
		}
		records = append(records, model.EvidenceRecord{
			Title:    team.Name,
			URL:      site,
			Source:   "TheSportsDB",
			Content:  content,
			Provider: a.Name(),
		})
	}
	return records
}
