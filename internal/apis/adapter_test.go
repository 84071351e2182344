package apis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/factweave/veridex/internal/model"
)

// fakeAdapter is a scriptable adapter for registry and cache tests.
type fakeAdapter struct {
	name     string
	domains  map[model.Domain]bool
	ttl      time.Duration
	searches int
	records  []model.EvidenceRecord
	err      error
}

func (f *fakeAdapter) Name() string            { return f.name }
func (f *fakeAdapter) CacheTTL() time.Duration { return f.ttl }

func (f *fakeAdapter) IsRelevantForDomain(domain model.Domain, jurisdiction model.Jurisdiction) bool {
	return f.domains[domain]
}

func (f *fakeAdapter) Search(ctx context.Context, query string, domain model.Domain, jurisdiction model.Jurisdiction) ([]model.EvidenceRecord, error) {
	f.searches++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func containsName(adapters []Adapter, name string) bool {
	for _, a := range adapters {
		if a.Name() == name {
			return true
		}
	}
	return false
}

func TestDefaultRegistryRoutesFinanceUKToONS(t *testing.T) {
	r := DefaultRegistry(nil)

	adapters := r.AdaptersForDomain(model.DomainFinance, model.JurisdictionUK)
	if !containsName(adapters, "ONS") {
		t.Error("Finance/UK should include ONS")
	}
	if containsName(adapters, "WHO GHO") {
		t.Error("Finance/UK should not include WHO")
	}
	if containsName(adapters, "CourtListener") {
		t.Error("Finance/UK should not include CourtListener")
	}
}

func TestDefaultRegistryRouting(t *testing.T) {
	r := DefaultRegistry(nil)

	tests := []struct {
		domain       model.Domain
		jurisdiction model.Jurisdiction
		want         string
		notWant      string
	}{
		{model.DomainHealth, model.JurisdictionGlobal, "WHO GHO", "ONS"},
		{model.DomainLaw, model.JurisdictionUK, "Legislation.gov.uk", "CourtListener"},
		{model.DomainLaw, model.JurisdictionUS, "CourtListener", "Legislation.gov.uk"},
		{model.DomainWeather, model.JurisdictionUK, "Open-Meteo", "World Bank"},
		{model.DomainScience, model.JurisdictionGlobal, "OpenAlex", "TheSportsDB"},
		{model.DomainSports, model.JurisdictionGlobal, "TheSportsDB", "WHO GHO"},
		{model.DomainFinance, model.JurisdictionGlobal, "World Bank", "ONS"},
	}
	for _, tt := range tests {
		adapters := r.AdaptersForDomain(tt.domain, tt.jurisdiction)
		if !containsName(adapters, tt.want) {
			t.Errorf("%s/%s: missing %s", tt.domain, tt.jurisdiction, tt.want)
		}
		if containsName(adapters, tt.notWant) {
			t.Errorf("%s/%s: unexpectedly includes %s", tt.domain, tt.jurisdiction, tt.notWant)
		}
	}
}

// Keyword-routed adapters never match by domain. FRED and Companies House
// stay out of routing until an API key is configured.
func TestDefaultRegistryExcludesKeyedAndKeywordOnlyAdapters(t *testing.T) {
	r := DefaultRegistry(nil)

	for _, domain := range []model.Domain{
		model.DomainFinance, model.DomainBusiness, model.DomainGeneral,
	} {
		for _, j := range []model.Jurisdiction{model.JurisdictionUK, model.JurisdictionUS, model.JurisdictionGlobal} {
			adapters := r.AdaptersForDomain(domain, j)
			for _, name := range []string{"Commodities", "FRED", "Companies House"} {
				if containsName(adapters, name) {
					t.Errorf("%s/%s: %s should not be domain-routed", domain, j, name)
				}
			}
		}
	}

	// But they remain reachable by name for the keyword router.
	for _, name := range []string{"Commodities", "FRED", "Companies House"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("Get(%q) not found", name)
		}
	}
}

func TestRegistryAdaptersForDomainIsNameSorted(t *testing.T) {
	r := NewRegistry()
	all := map[model.Domain]bool{model.DomainGeneral: true}
	r.Register(&fakeAdapter{name: "zeta", domains: all})
	r.Register(&fakeAdapter{name: "alpha", domains: all})
	r.Register(&fakeAdapter{name: "mid", domains: all})

	adapters := r.AdaptersForDomain(model.DomainGeneral, model.JurisdictionGlobal)
	want := []string{"alpha", "mid", "zeta"}
	if len(adapters) != len(want) {
		t.Fatalf("got %d adapters, want %d", len(adapters), len(want))
	}
	for i, name := range want {
		if adapters[i].Name() != name {
			t.Errorf("adapters[%d] = %s, want %s", i, adapters[i].Name(), name)
		}
	}
}

func TestRegistryRegisterReplacesByName(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeAdapter{name: "dup", ttl: time.Hour})
	r.Register(&fakeAdapter{name: "dup", ttl: 2 * time.Hour})

	if got := len(r.Names()); got != 1 {
		t.Fatalf("Names() len = %d, want 1", got)
	}
	a, _ := r.Get("dup")
	if a.CacheTTL() != 2*time.Hour {
		t.Error("second registration should replace the first")
	}
}

func TestFakeAdapterErrorPropagates(t *testing.T) {
	wantErr := errors.New("upstream down")
	f := &fakeAdapter{name: "broken", err: wantErr}
	_, err := f.Search(context.Background(), "q", model.DomainGeneral, model.JurisdictionGlobal)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
