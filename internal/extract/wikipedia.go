package extract

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/search"
)

// Wikipedia resolves a page title (or a /wiki/ URL) through the MediaWiki
// API and returns the plain-text extract. Missing and disambiguation pages
// are permanent failures.
type Wikipedia struct {
	APIURL string
	// Fetcher must accept JSON responses (fetch.Client with AcceptAny).
	Fetcher Fetcher
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Extract(ctx context.Context, ref search.Result) (Document, error) {
	if w.Fetcher == nil {
		return Document{}, fault.Permanentf("no fetcher configured")
	}
	title := wikiTitle(ref)
	if title == "" {
		return Document{}, fault.Permanentf("reference has no page title")
	}
	base := w.APIURL
	if base == "" {
		base = search.WikipediaAPI
	}
	u, err := url.Parse(base)
	if err != nil {
		return Document{}, fault.Permanentf("parse wikipedia url: %w", err)
	}
	q := u.Query()
	q.Set("action", "query")
	q.Set("prop", "extracts|info|pageprops")
	q.Set("explaintext", "1")
	q.Set("redirects", "1")
	q.Set("inprop", "url")
	q.Set("ppprop", "disambiguation")
	q.Set("titles", title)
	q.Set("format", "json")
	q.Set("formatversion", "2")
	u.RawQuery = q.Encode()

	page, err := w.Fetcher.Get(ctx, u.String())
	if err != nil {
		return Document{}, err
	}
	var resp wikiPageResponse
	if err := json.Unmarshal(page.Body, &resp); err != nil {
		return Document{}, fault.Transientf("decode wikipedia response: %w", err)
	}
	if resp.Error != nil {
		return Document{}, fault.Permanentf("wikipedia: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	if len(resp.Query.Pages) == 0 {
		return Document{}, fault.Permanentf("wikipedia: page %q not found", title)
	}
	p := resp.Query.Pages[0]
	switch {
	case p.Missing || p.Invalid:
		return Document{}, fault.Permanentf("wikipedia: page %q not found", title)
	case p.isDisambiguation():
		return Document{}, fault.Permanentf("wikipedia: %q is a disambiguation page", p.Title)
	}
	return Document{
		Title: p.Title,
		URL:   p.FullURL,
		Text:  strings.TrimSpace(p.Extract),
	}, nil
}

// wikiTitle prefers the reference title and falls back to the last path
// segment of a /wiki/ URL.
func wikiTitle(ref search.Result) string {
	if t := strings.TrimSpace(ref.Title); t != "" {
		return t
	}
	u, err := url.Parse(strings.TrimSpace(ref.URL))
	if err != nil {
		return ""
	}
	const prefix = "/wiki/"
	if !strings.HasPrefix(u.Path, prefix) {
		return ""
	}
	return strings.ReplaceAll(strings.TrimPrefix(u.Path, prefix), "_", " ")
}

type wikiPageResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query struct {
		Pages []wikiPage `json:"pages"`
	} `json:"query"`
}

type wikiPage struct {
	Title     string            `json:"title"`
	Missing   bool              `json:"missing"`
	Invalid   bool              `json:"invalid"`
	Extract   string            `json:"extract"`
	FullURL   string            `json:"fullurl"`
	PageProps map[string]string `json:"pageprops"`
}

func (p wikiPage) isDisambiguation() bool {
	_, ok := p.PageProps["disambiguation"]
	return ok
}
