package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/factweave/veridex/internal/model"
)

func testExtractor(rateLimited ...string) *Extractor {
	return NewExtractor(
		model.SearchConfig{FetchTimeout: 5 * time.Second, RateLimitedDomains: rateLimited},
		model.HTTPConfig{UserAgent: "veridex-test", MaxBodyBytes: 1_000_000},
		nil, nil,
	)
}

const articleHTML = `<!DOCTYPE html>
<html><head><title>Labour market overview</title></head>
<body>
<nav><a href="/">Home</a> News Sport Weather</nav>
<article>
<h1>Unemployment edges up</h1>
<p>The UK unemployment rate rose to 4.1% in the three months to June, according to the latest labour market figures.</p>
<p>Economists had expected the rate to hold steady, and the rise adds to evidence that the jobs market is cooling gradually.</p>
<p>Vacancies fell for the twenty-fifth consecutive period while wage growth continued to outpace inflation.</p>
</article>
<footer>Subscribe now for unlimited access</footer>
</body></html>`

func TestExtractHTMLUsesMainContentSelectors(t *testing.T) {
	content, err := extractHTML(articleHTML)
	if err != nil {
		t.Fatalf("extractHTML() error = %v", err)
	}
	if content.Title != "Labour market overview" {
		t.Errorf("Title = %q", content.Title)
	}
	if !strings.Contains(content.Text, "unemployment rate rose to 4.1%") {
		t.Errorf("Text missing article body: %q", content.Text)
	}
	if strings.Contains(content.Text, "Home") || strings.Contains(content.Text, "Subscribe now") {
		t.Errorf("Text contains nav/footer noise: %q", content.Text)
	}
}

func TestExtractHTMLFallsBackToParagraphWalk(t *testing.T) {
	// No article/main container at all.
	page := `<html><body>
<div><p>The study followed twelve thousand participants over a decade and found a measurable decline in cardiovascular risk.</p>
<p>Researchers attributed the change to dietary shifts across the cohort, though they cautioned the observational design limits causal claims.</p></div>
</body></html>`

	content, err := extractHTML(page)
	if err != nil {
		t.Fatalf("extractHTML() error = %v", err)
	}
	if !strings.Contains(content.Text, "twelve thousand participants") {
		t.Errorf("fallback walk missed paragraph text: %q", content.Text)
	}
}

func TestExtractHTMLEmptyPage(t *testing.T) {
	_, err := extractHTML(`<html><body><p>Too short.</p></body></html>`)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("error = %v, want ErrNoContent", err)
	}
}

func TestSanitizeStripsBoilerplate(t *testing.T) {
	in := strings.Join([]string{
		"This website uses cookies to improve your experience.",
		"The inflation rate fell to 2.2% in July.",
		"Advertisement",
		"Subscribe now",
		"Share this article on social media",
		"Sign up   to our newsletter",
		"Wage growth remained at 5.4%.",
	}, "\n")

	got := sanitize(in)
	want := "The inflation rate fell to 2.2% in July.\nWage growth remained at 5.4%."
	if got != want {
		t.Errorf("sanitize() = %q, want %q", got, want)
	}
}

func TestExtractorSkipsRateLimitedDomains(t *testing.T) {
	e := testExtractor("ft.com", "wsj.com")

	_, err := e.Extract(context.Background(), "https://www.ft.com/content/abc")
	if !errors.Is(err, ErrRateLimitedDomain) {
		t.Errorf("error = %v, want ErrRateLimitedDomain", err)
	}
}

func TestExtractorClassifiesBlockedResponses(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		e := testExtractor()

		_, err := e.Extract(context.Background(), srv.URL+"/article")
		if !errors.Is(err, ErrBlocked) {
			t.Errorf("status %d: error = %v, want ErrBlocked", status, err)
		}
		srv.Close()
	}
}

func TestExtractorOtherStatusesAreNotBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	e := testExtractor()

	_, err := e.Extract(context.Background(), srv.URL+"/gone")
	if err == nil || errors.Is(err, ErrBlocked) || errors.Is(err, ErrFetchTimeout) {
		t.Errorf("error = %v, want plain failure", err)
	}
}

func TestExtractorFetchesArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "veridex-test" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()
	e := testExtractor()

	content, err := e.Extract(context.Background(), srv.URL+"/news/article")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(content.Text, "jobs market is cooling") {
		t.Errorf("Text = %q", content.Text)
	}
}

func TestExtractorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	e := NewExtractor(
		model.SearchConfig{FetchTimeout: 50 * time.Millisecond},
		model.HTTPConfig{UserAgent: "veridex-test"},
		nil, nil,
	)

	_, err := e.Extract(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("error = %v, want ErrFetchTimeout", err)
	}
}
