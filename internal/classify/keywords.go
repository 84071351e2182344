package classify

import "regexp"

// route pairs one pre-compiled pattern with the adapter it unlocks.
type route struct {
	pattern *regexp.Regexp
	adapter string
}

// KeywordRouter finds ADDITIONAL specialized adapters via pure regex
// matching, independent of domain classification. It is strictly additive:
// it never removes or overrides adapters already selected, and
// de-duplicates against them by name.
type KeywordRouter struct {
	routes []route
}

// NewKeywordRouter compiles the routing table once; the router is reused
// across all claims.
func NewKeywordRouter() *KeywordRouter {
	specs := []struct {
		expr    string
		adapter string
	}{
		{`(?i)\b(oil|gas|gold|silver|copper|wheat|commodit(y|ies)|crude|brent)\b.*\b(price|prices|cost|dropped|rose|surged|fell)\b`, "Commodities"},
		{`(?i)\b(price|prices)\b.*\b(oil|gas|gold|silver|copper|wheat|crude|brent)\b`, "Commodities"},
		{`(?i)\b(temperature|rainfall|heatwave|storm|hurricane|weather|flooding)\b`, "Open-Meteo"},
		{`(?i)\b(company|ltd|limited|plc|incorporated|registered office|director)\b`, "Companies House"},
		{`(?i)\b(goal|goals|match|season|league|tournament|fixture)\b`, "TheSportsDB"},
		{`(?i)\b(study|studies|paper|journal|citation|peer[- ]reviewed)\b`, "OpenAlex"},
		{`(?i)\b(act|statute|court|ruling|judgment|tribunal)\b`, "CourtListener"},
		{`(?i)\b(world bank|developing countries|global poverty|gni)\b`, "World Bank"},
	}

	routes := make([]route, 0, len(specs))
	for _, s := range specs {
		routes = append(routes, route{
			pattern: regexp.MustCompile(s.expr),
			adapter: s.adapter,
		})
	}
	return &KeywordRouter{routes: routes}
}

// Route returns the adapter names whose patterns match the claim text,
// excluding names already present in selected.
func (r *KeywordRouter) Route(claimText string, selected []string) []string {
	have := make(map[string]bool, len(selected))
	for _, name := range selected {
		have[name] = true
	}

	var extra []string
	for _, rt := range r.routes {
		if have[rt.adapter] {
			continue
		}
		if rt.pattern.MatchString(claimText) {
			extra = append(extra, rt.adapter)
			have[rt.adapter] = true
		}
	}
	return extra
}
