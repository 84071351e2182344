// Package search turns a claim into ranked, extracted web evidence. The
// pipeline is search -> bounded concurrent extraction -> snippet location
// -> composite ranking; every candidate goes through the same
// extraction-or-labeled-fallback policy regardless of which query produced
// it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/factweave/veridex/internal/cache"
	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/util"
)

// Provider executes a web search and returns raw candidates in provider
// order. Result snippets are meta-descriptions, never evidence text.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error)
}

// HTTPProvider queries a SearxNG-compatible JSON search endpoint.
type HTTPProvider struct {
	endpoint  string
	apiKey    string
	http      *http.Client
	userAgent string
}

// NewHTTPProvider creates the web search client.
func NewHTTPProvider(searchCfg model.SearchConfig, httpCfg model.HTTPConfig) *HTTPProvider {
	return &HTTPProvider{
		endpoint: searchCfg.Endpoint,
		apiKey:   searchCfg.APIKey,
		http: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		userAgent: httpCfg.UserAgent,
	}
}

type searxResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		Engine        string `json:"engine"`
		PublishedDate string `json:"publishedDate"`
	} `json:"results"`
}

// Search runs the query and transforms the response. Results beyond
// maxResults are discarded.
func (p *HTTPProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	if p.endpoint == "" {
		return nil, fmt.Errorf("search endpoint not configured")
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	reqURL := p.endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var decoded searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		sr := model.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Source:  r.Engine,
		}
		if t, err := time.Parse(time.RFC3339, r.PublishedDate); err == nil {
			sr.PublishedDate = &t
		}
		results = append(results, sr)
		if maxResults > 0 && len(results) == maxResults {
			break
		}
	}
	return results, nil
}

// CachedProvider wraps a Provider with the shared cache under the search
// category TTL.
type CachedProvider struct {
	inner   Provider
	cache   cache.Cache
	metrics *cache.Metrics
	ttl     time.Duration
}

// NewCachedProvider builds the caching wrapper.
func NewCachedProvider(inner Provider, c cache.Cache, metrics *cache.Metrics, ttl time.Duration) *CachedProvider {
	if c == nil {
		c = cache.Null{}
	}
	if metrics == nil {
		metrics = cache.NewMetrics()
	}
	return &CachedProvider{inner: inner, cache: c, metrics: metrics, ttl: ttl}
}

func (p *CachedProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	key := cache.Key(cache.CategorySearch, fmt.Sprintf("%s|%d", query, maxResults))

	if data, ok := p.cache.Get(key); ok {
		var results []model.SearchResult
		if err := json.Unmarshal(data, &results); err == nil {
			p.metrics.Hit(string(cache.CategorySearch))
			return results, nil
		}
		_ = p.cache.Delete(key)
	}
	p.metrics.Miss(string(cache.CategorySearch))

	results, err := p.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(results); err == nil {
		_ = p.cache.Set(key, data, p.ttl)
	}
	return results, nil
}
