package apis

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/factweave/veridex/internal/model"
)

const openMeteoDefaultBaseURL = "https://geocoding-api.open-meteo.com/v1"
const openMeteoForecastBaseURL = "https://api.open-meteo.com/v1"

// OpenMeteoAdapter wraps the Open-Meteo geocoding + forecast APIs for
// weather and climate claims. Weather data is volatile: responses stay
// fresh for only an hour.
type OpenMeteoAdapter struct {
	client      *Client
	geocodeURL  string
	forecastURL string
}

// NewOpenMeteoAdapter creates the Open-Meteo adapter.
func NewOpenMeteoAdapter(client *Client) *OpenMeteoAdapter {
	return &OpenMeteoAdapter{
		client:      client,
		geocodeURL:  openMeteoDefaultBaseURL,
		forecastURL: openMeteoForecastBaseURL,
	}
}

func (a *OpenMeteoAdapter) Name() string { return "Open-Meteo" }

func (a *OpenMeteoAdapter) CacheTTL() time.Duration { return time.Hour }

func (a *OpenMeteoAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	return domain == model.DomainWeather
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature2m float64 `json:"temperature_2m"`
		Precipitation float64 `json:"precipitation"`
		WindSpeed10m  float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

func (a *OpenMeteoAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	place := locationFromQuery(query, jurisdiction)

	geoEndpoint := fmt.Sprintf("%s/search?count=1&name=%s", a.geocodeURL, url.QueryEscape(place))
	var geo geocodeResponse
	if err := a.client.GetJSON(ctx, a.Name(), geoEndpoint, &geo); err != nil {
		return nil, fmt.Errorf("open-meteo geocode: %w", err)
	}
	if len(geo.Results) == 0 {
		return nil, nil
	}
	loc := geo.Results[0]

	fcEndpoint := fmt.Sprintf("%s/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,precipitation,wind_speed_10m",
		a.forecastURL, loc.Latitude, loc.Longitude)
	var fc forecastResponse
	if err := a.client.GetJSON(ctx, a.Name(), fcEndpoint, &fc); err != nil {
		return nil, fmt.Errorf("open-meteo forecast: %w", err)
	}

	rec := model.EvidenceRecord{
		Title:  fmt.Sprintf("Current conditions in %s, %s", loc.Name, loc.Country),
		URL:    fmt.Sprintf("https://open-meteo.com/en/docs#latitude=%.4f&longitude=%.4f", loc.Latitude, loc.Longitude),
		Source: "Open-Meteo",
		Content: fmt.Sprintf("Observed conditions for %s: temperature %.1f°C, precipitation %.1fmm, wind %.1f km/h (as of %s)",
			loc.Name, fc.Current.Temperature2m, fc.Current.Precipitation, fc.Current.WindSpeed10m, fc.Current.Time),
		Provider: a.Name(),
	}
	if t, err := time.Parse("2006-01-02T15:04", fc.Current.Time); err == nil {
		rec.Published = &t
	}
	return []model.EvidenceRecord{rec}, nil
}

// locationFromQuery finds a capitalized place-looking token, falling back
// to the jurisdiction's capital.
func locationFromQuery(query string, jurisdiction model.Jurisdiction) string {
	words := strings.Fields(query)
	for i, w := range words {
		if i == 0 {
			continue // Sentence-initial capitals are not place markers
		}
		trimmed := strings.Trim(w, ".,!?;:\"'()")
		if len(trimmed) > 2 && trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
			return trimmed
		}
	}

	switch jurisdiction {
	case model.JurisdictionUK:
		return "London"
	case model.JurisdictionUS:
		return "Washington"
	case model.JurisdictionEU:
		return "Brussels"
	default:
		return "London"
	}
}
