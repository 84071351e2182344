package retrieve

import (
	"sync"

	"github.com/factweave/veridex/internal/model"
)

// Stats aggregates API usage across one retrieval run for observability.
type Stats struct {
	mu sync.Mutex

	APICalls      int            `json:"api_calls"`
	APIErrors     int            `json:"api_errors"`
	APIResults    int            `json:"api_results"`
	APIEvidence   int            `json:"api_evidence"` // API-sourced items in final sets
	WebResults    int            `json:"web_results"`
	CallsByAPI    map[string]int `json:"calls_by_api,omitempty"`
	ResultsByAPI  map[string]int `json:"results_by_api,omitempty"`
	ClaimsTotal   int            `json:"claims_total"`
	ClaimsCovered int            `json:"claims_covered"` // Claims with at least one snippet
}

func newStats() *Stats {
	return &Stats{
		CallsByAPI:   make(map[string]int),
		ResultsByAPI: make(map[string]int),
	}
}

func (st *Stats) recordCall(api string, results int, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.APICalls++
	st.CallsByAPI[api]++
	if err != nil {
		st.APIErrors++
		return
	}
	st.APIResults += results
	st.ResultsByAPI[api] += results
}

// recordClaim classifies the claim's final evidence set. Provenance is
// checked defensively through Provider(), which reads the top-level field
// first and falls back to metadata, tolerating historical format drift.
func (st *Stats) recordClaim(snippets []model.EvidenceSnippet) {
	var web, api int
	for i := range snippets {
		if snippets[i].Provider() == "" {
			web++
		} else {
			api++
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.ClaimsTotal++
	if len(snippets) > 0 {
		st.ClaimsCovered++
	}
	st.WebResults += web
	st.APIEvidence += api
}

// APIShare is the fraction of final evidence items carrying an API
// provenance marker, 0 when there is no evidence at all.
func (st *Stats) APIShare() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	total := st.APIEvidence + st.WebResults
	if total == 0 {
		return 0
	}
	return float64(st.APIEvidence) / float64(total)
}

// Coverage is the fraction of claims that ended with at least one
// evidence snippet.
func (st *Stats) Coverage() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ClaimsTotal == 0 {
		return 0
	}
	return float64(st.ClaimsCovered) / float64(st.ClaimsTotal)
}
