package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/util"
	"github.com/factweave/veridex/internal/worker"
)

// Sentinel fetch failures. Blocked and timeout are the two transient
// causes eligible for the labeled snippet fallback; everything else
// drops the candidate.
var (
	ErrBlocked           = errors.New("fetch blocked by site")
	ErrFetchTimeout      = errors.New("fetch timed out")
	ErrRateLimitedDomain = errors.New("domain on rate-limited skip list")
	ErrRobotsDisallowed  = errors.New("disallowed by robots.txt")
	ErrNoContent         = errors.New("no usable text content")
)

// ExtractedContent is the cleaned main text of one page.
type ExtractedContent struct {
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
	PDFPages []int  `json:"pdf_pages,omitempty"` // 1-based pages contributing text
}

// Extractor fetches pages and pulls out main article content. It respects
// robots.txt and a per-domain rate limiter, and skips domains known to
// rate-limit scrapers outright.
type Extractor struct {
	http        *http.Client
	userAgent   string
	maxBytes    int64
	rateLimited map[string]bool
	robots      *util.RobotsChecker
	limiter     *worker.Limiter
}

// NewExtractor creates a page-content extractor. robots and limiter may be
// nil to disable politeness gating (tests).
func NewExtractor(searchCfg model.SearchConfig, httpCfg model.HTTPConfig, robots *util.RobotsChecker, limiter *worker.Limiter) *Extractor {
	timeout := searchCfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	skip := make(map[string]bool, len(searchCfg.RateLimitedDomains))
	for _, d := range searchCfg.RateLimitedDomains {
		skip[strings.ToLower(d)] = true
	}

	return &Extractor{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		userAgent:   httpCfg.UserAgent,
		maxBytes:    maxBytes,
		rateLimited: skip,
		robots:      robots,
		limiter:     limiter,
	}
}

// Extract fetches rawURL and returns its main content. PDF URLs go through
// the PDF path and carry page numbers.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*ExtractedContent, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	host := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
	if e.rateLimited[host] {
		return nil, ErrRateLimitedDomain
	}

	if e.robots != nil {
		allowed, crawlDelay, err := e.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return nil, ErrRobotsDisallowed
		}
		if crawlDelay > 10*time.Second {
			crawlDelay = 10 * time.Second
		}
		if e.limiter != nil {
			if err := e.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
				return nil, err
			}
		}
	} else if e.limiter != nil {
		if err := e.limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	body, contentType, err := e.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(parsed.Path), ".pdf") ||
		strings.Contains(contentType, "application/pdf") {
		return extractPDF(body)
	}
	return extractHTML(string(body))
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, "", fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", fmt.Errorf("%w: status %d", ErrBlocked, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, "", fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Containers tried in order; the first one with enough text wins.
var mainContentSelectors = []string{
	"article",
	"[role=main]",
	"main",
	".article-body",
	".article-content",
	".post-content",
	".story-body",
	".entry-content",
	"#content",
}

const minMainContentChars = 200

func extractHTML(htmlContent string) (*ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		// Malformed enough for goquery means the fallback walk will not
		// do better.
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, nav, header, footer, aside, form, noscript, iframe").Remove()

	var text string
	for _, selector := range mainContentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		candidate := sanitize(collectParagraphs(sel))
		if len(candidate) >= minMainContentChars {
			text = candidate
			break
		}
	}

	if text == "" {
		text = sanitize(fallbackParagraphs(htmlContent))
	}
	if len(text) < minMainContentChars {
		return nil, ErrNoContent
	}
	return &ExtractedContent{Title: title, Text: text}, nil
}

// collectParagraphs joins block-level text within a container. Falling back
// to the container's own text covers pages that skip <p> tags.
func collectParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(sel.Text())
	}
	return strings.Join(parts, "\n")
}

// fallbackParagraphs is the selector-free extraction path: walk the raw
// tree and take every paragraph's text.
func fallbackParagraphs(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var parts []string
	var inSkipped int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "header", "footer", "aside", "form", "noscript":
				inSkipped++
				defer func() { inSkipped-- }()
			case "p":
				if inSkipped == 0 {
					if t := strings.TrimSpace(nodeText(n)); t != "" {
						parts = append(parts, t)
					}
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, "\n")
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Boilerplate lines that survive DOM pruning: cookie banners, subscription
// prompts, navigation crumbs.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(accept|manage|we use) (all )?cookies?\b.*`),
	regexp.MustCompile(`(?i)^this (web)?site uses cookies.*`),
	regexp.MustCompile(`(?i)^(subscribe|sign up|sign in|log in|register)( now| today)?\b.{0,60}$`),
	regexp.MustCompile(`(?i)^advertisement$`),
	regexp.MustCompile(`(?i)^share (this )?(article|story|page)\b.*`),
	regexp.MustCompile(`(?i)^(read|see) (more|also):?\s.*`),
	regexp.MustCompile(`(?i)^follow us on\b.*`),
	regexp.MustCompile(`(?i)enable javascript.{0,80}$`),
}

var spaceRun = regexp.MustCompile(`[ \t]+`)

func sanitize(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		noisy := false
		for _, p := range noisePatterns {
			if p.MatchString(line) {
				noisy = true
				break
			}
		}
		if !noisy {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func extractPDF(body []byte) (*ExtractedContent, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("parse PDF: %w", err)
	}

	var parts []string
	pageSet := make(map[int]bool)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		pageSet[i] = true
	}

	if len(parts) == 0 {
		return nil, ErrNoContent
	}

	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	return &ExtractedContent{
		Text:     sanitize(strings.Join(parts, "\n")),
		PDFPages: pages,
	}, nil
}
