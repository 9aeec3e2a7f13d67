package search

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

const duckDuckGoHTML = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint. It needs no API key.
type DuckDuckGo struct {
	Endpoint   string
	HTTPClient *http.Client
	UserAgent  string
	Limiter    *rate.Limiter
}

// NewDuckDuckGo returns a provider paced at one query per second.
func NewDuckDuckGo(hc *http.Client) *DuckDuckGo {
	return &DuckDuckGo{
		HTTPClient: hc,
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fault.Permanentf("duckduckgo: empty query")
	}
	limit = limitOrDefault(limit)
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = duckDuckGoHTML
	}
	form := url.Values{}
	form.Set("q", query)
	form.Set("b", "")
	form.Set("kl", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fault.Permanentf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	ua := d.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; quickresearch/1.0)"
	}
	req.Header.Set("User-Agent", ua)

	body, err := do(ctx, d.HTTPClient, d.Limiter, req)
	if err != nil {
		return nil, err
	}
	return parseDuckDuckGo(body, limit, d.Name())
}

func parseDuckDuckGo(body []byte, limit int, provider string) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fault.Transientf("parse duckduckgo html: %w", err)
	}
	// An anomaly page (captcha) has no result container at all.
	if doc.Find(".results, #links").Length() == 0 && doc.Find(".result").Length() == 0 {
		return nil, fault.Transientf("duckduckgo: unexpected page (rate limited?)")
	}
	out := make([]Result, 0, limit)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := unwrapDuckDuckGoURL(href)
		if target == "" {
			return true
		}
		out = append(out, Result{
			Title:    strings.TrimSpace(link.Text()),
			URL:      target,
			Snippet:  strings.TrimSpace(s.Find(".result__snippet").Text()),
			Provider: provider,
		})
		return len(out) < limit
	})
	return out, nil
}

// unwrapDuckDuckGoURL resolves "//duckduckgo.com/l/?uddg=<target>" redirect
// links to the target URL.
func unwrapDuckDuckGoURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
