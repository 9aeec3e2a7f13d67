package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

// WikipediaAPI is the default MediaWiki API endpoint.
const WikipediaAPI = "https://en.wikipedia.org/w/api.php"

// Wikipedia searches page titles through the MediaWiki search API. Results
// carry titles only; the Wikipedia extraction strategy resolves them.
type Wikipedia struct {
	APIURL     string
	HTTPClient *http.Client
	UserAgent  string
	Limiter    *rate.Limiter
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fault.Permanentf("wikipedia: empty query")
	}
	limit = limitOrDefault(limit)
	base := w.APIURL
	if base == "" {
		base = WikipediaAPI
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fault.Permanentf("parse wikipedia url: %w", err)
	}
	q := u.Query()
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", itoa(limit))
	q.Set("srprop", "snippet|timestamp")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	u.RawQuery = q.Encode()

	var wr wikiSearchResponse
	if err := getJSON(ctx, w.HTTPClient, w.Limiter, w.UserAgent, u.String(), &wr); err != nil {
		return nil, err
	}
	if wr.Error != nil {
		return nil, fault.Permanentf("wikipedia: %s: %s", wr.Error.Code, wr.Error.Info)
	}
	out := make([]Result, 0, len(wr.Query.Search))
	for _, hit := range wr.Query.Search {
		title := strings.TrimSpace(hit.Title)
		if title == "" {
			continue
		}
		out = append(out, Result{
			Title:    title,
			Snippet:  stripSearchMatch(hit.Snippet),
			Provider: w.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// stripSearchMatch drops the <span class="searchmatch"> highlighting that
// MediaWiki wraps around matched terms.
func stripSearchMatch(s string) string {
	s = strings.ReplaceAll(s, `<span class="searchmatch">`, "")
	s = strings.ReplaceAll(s, "</span>", "")
	return strings.TrimSpace(s)
}

type wikiSearchResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query struct {
		Search []struct {
			Title     string `json:"title"`
			Snippet   string `json:"snippet"`
			Timestamp string `json:"timestamp"`
		} `json:"search"`
	} `json:"query"`
}
