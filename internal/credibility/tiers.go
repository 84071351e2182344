package credibility

// DefaultTiers is the built-in tier table. Satire sources are
// auto-excludable; state and partisan media are flagged but kept —
// transparency over censorship.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Name:  "academic",
			Score: 0.95,
			Domains: []string{
				"*.edu", "*.ac.uk", "nature.com", "science.org",
				"thelancet.com", "nejm.org", "arxiv.org",
			},
		},
		{
			Name:  "government",
			Score: 0.95,
			Domains: []string{
				"*.gov", "*.gov.uk", "europa.eu", "who.int",
				"un.org", "ons.gov.uk", "legislation.gov.uk",
			},
		},
		{
			Name:  "factcheck",
			Score: 0.85,
			Domains: []string{
				"snopes.com", "politifact.com", "factcheck.org", "fullfact.org",
			},
		},
		{
			Name:  "major_news",
			Score: 0.8,
			Domains: []string{
				"reuters.com", "apnews.com", "bbc.co.uk", "bbc.com",
				"ft.com", "economist.com", "theguardian.com", "nytimes.com",
			},
			// Opinion sections carry lower weight than reporting desks.
			PathPatterns: []PathPattern{},
		},
		{
			Name:  "opinion",
			Score: 0.55,
			PathPatterns: []PathPattern{
				{Domain: "theguardian.com", PathPrefix: "commentisfree"},
				{Domain: "nytimes.com", PathPrefix: "opinion"},
				{Domain: "wsj.com", PathPrefix: "opinion"},
			},
		},
		{
			Name:      "state_media",
			Score:     0.4,
			RiskFlags: []string{"state_sponsored"},
			Domains:   []string{"rt.com", "presstv.ir", "globaltimes.cn"},
		},
		{
			Name:      "tabloid",
			Score:     0.4,
			RiskFlags: []string{"sensationalism"},
			Domains:   []string{"dailymail.co.uk", "thesun.co.uk", "nypost.com", "mirror.co.uk"},
		},
		{
			Name:        "satire",
			Score:       0.1,
			RiskFlags:   []string{"satire"},
			AutoExclude: true,
			Domains:     []string{"theonion.com", "babylonbee.com", "thedailymash.co.uk"},
		},
		{
			Name:      "blacklist",
			Score:     0.05,
			RiskFlags: []string{"conspiracy_theories", "fabricated_content"},
			Domains:   []string{"infowars.com", "naturalnews.com", "beforeitsnews.com"},
		},
	}
}
