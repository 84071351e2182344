package classify

import "github.com/factweave/veridex/internal/model"

// domainIndicators is the domain-indicative entity/keyword table. Weights
// reflect how strongly a term points at the domain: institutional names
// score higher than generic vocabulary.
func domainIndicators() map[model.Domain][]indicator {
	return map[model.Domain][]indicator{
		model.DomainFinance: {
			{term: "federal reserve", weight: 4, jurisdiction: model.JurisdictionUS},
			{term: "bank of england", weight: 4, jurisdiction: model.JurisdictionUK},
			{term: "european central bank", weight: 4, jurisdiction: model.JurisdictionEU},
			{term: "office for national statistics", weight: 4, jurisdiction: model.JurisdictionUK},
			{term: "ons", weight: 3, jurisdiction: model.JurisdictionUK},
			{term: "unemployment", weight: 3},
			{term: "inflation", weight: 3},
			{term: "gdp", weight: 3},
			{term: "interest rate", weight: 3},
			{term: "recession", weight: 2},
			{term: "wages", weight: 2},
			{term: "stock market", weight: 2},
			{term: "ftse", weight: 3, jurisdiction: model.JurisdictionUK},
			{term: "dow jones", weight: 3, jurisdiction: model.JurisdictionUS},
		},
		model.DomainHealth: {
			{term: "nhs", weight: 4, jurisdiction: model.JurisdictionUK},
			{term: "who", weight: 2},
			{term: "world health organization", weight: 4},
			{term: "cdc", weight: 4, jurisdiction: model.JurisdictionUS},
			{term: "fda", weight: 3, jurisdiction: model.JurisdictionUS},
			{term: "vaccine", weight: 3},
			{term: "cancer", weight: 2},
			{term: "obesity", weight: 2},
			{term: "pandemic", weight: 3},
			{term: "mortality", weight: 2},
			{term: "life expectancy", weight: 3},
			{term: "clinical trial", weight: 3},
		},
		model.DomainLaw: {
			{term: "supreme court", weight: 4},
			{term: "parliament", weight: 3, jurisdiction: model.JurisdictionUK},
			{term: "congress", weight: 3, jurisdiction: model.JurisdictionUS},
			{term: "legislation", weight: 3},
			{term: "statute", weight: 3},
			{term: "high court", weight: 3, jurisdiction: model.JurisdictionUK},
			{term: "ruled", weight: 2},
			{term: "unlawful", weight: 3},
			{term: "illegal", weight: 2},
			{term: "act of parliament", weight: 4, jurisdiction: model.JurisdictionUK},
			{term: "regulation", weight: 2},
		},
		model.DomainScience: {
			{term: "study shows", weight: 3},
			{term: "researchers", weight: 2},
			{term: "peer-reviewed", weight: 3},
			{term: "nasa", weight: 3, jurisdiction: model.JurisdictionUS},
			{term: "published in", weight: 2},
			{term: "university of", weight: 2},
			{term: "experiment", weight: 2},
		},
		model.DomainPolitics: {
			{term: "election", weight: 3},
			{term: "prime minister", weight: 3, jurisdiction: model.JurisdictionUK},
			{term: "president", weight: 2},
			{term: "white house", weight: 3, jurisdiction: model.JurisdictionUS},
			{term: "downing street", weight: 3, jurisdiction: model.JurisdictionUK},
			{term: "manifesto", weight: 2},
			{term: "referendum", weight: 3},
			{term: "poll", weight: 2},
		},
		model.DomainWeather: {
			{term: "met office", weight: 4, jurisdiction: model.JurisdictionUK},
			{term: "heatwave", weight: 3},
			{term: "rainfall", weight: 3},
			{term: "temperature record", weight: 3},
			{term: "hurricane", weight: 3},
			{term: "hottest", weight: 2},
			{term: "climate", weight: 2},
		},
		model.DomainSports: {
			{term: "premier league", weight: 4, jurisdiction: model.JurisdictionUK},
			{term: "world cup", weight: 3},
			{term: "olympics", weight: 3},
			{term: "championship", weight: 2},
			{term: "goals", weight: 2},
			{term: "scored", weight: 2},
		},
		model.DomainBusiness: {
			{term: "companies house", weight: 4, jurisdiction: model.JurisdictionUK},
			{term: "sec filing", weight: 4, jurisdiction: model.JurisdictionUS},
			{term: "acquisition", weight: 2},
			{term: "bankruptcy", weight: 3},
			{term: "revenue", weight: 2},
			{term: "shareholders", weight: 2},
			{term: "ceo", weight: 2},
		},
	}
}

// countryMarkers maps explicit country/region mentions to jurisdictions.
func countryMarkers() map[string]model.Jurisdiction {
	return map[string]model.Jurisdiction{
		"uk":             model.JurisdictionUK,
		"united kingdom": model.JurisdictionUK,
		"britain":        model.JurisdictionUK,
		"british":        model.JurisdictionUK,
		"england":        model.JurisdictionUK,
		"scotland":       model.JurisdictionUK,
		"wales":          model.JurisdictionUK,
		"us":             model.JurisdictionUS,
		"usa":            model.JurisdictionUS,
		"united states":  model.JurisdictionUS,
		"american":       model.JurisdictionUS,
		"eu":             model.JurisdictionEU,
		"european union": model.JurisdictionEU,
		"eurozone":       model.JurisdictionEU,
	}
}
