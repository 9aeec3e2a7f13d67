package search

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

// News searches a fixed set of RSS/Atom feeds. Feeds are not queryable, so
// items are pulled and matched locally on any query keyword in the title or
// description. Feed order, then item order, is the relevance order.
type News struct {
	Feeds      []string
	HTTPClient *http.Client
	UserAgent  string
}

func (n *News) Name() string { return "news" }

func (n *News) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if len(n.Feeds) == 0 {
		return nil, fault.Permanentf("news: no feeds configured")
	}
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, fault.Permanentf("news: empty query")
	}
	limit = limitOrDefault(limit)

	parser := gofeed.NewParser()
	out := make([]Result, 0, limit)
	var errs []error
	for _, feedURL := range n.Feeds {
		if len(out) >= limit {
			break
		}
		feed, err := n.fetchFeed(ctx, parser, feedURL)
		if err != nil {
			log.Debug().Err(err).Str("feed", feedURL).Msg("feed fetch failed")
			errs = append(errs, err)
			continue
		}
		for _, it := range feed.Items {
			if len(out) >= limit {
				break
			}
			link := strings.TrimSpace(it.Link)
			if link == "" {
				continue
			}
			if !matchesAnyKeyword(strings.ToLower(it.Title+" "+it.Description), keywords) {
				continue
			}
			out = append(out, Result{
				Title:    strings.TrimSpace(it.Title),
				URL:      link,
				Snippet:  strings.TrimSpace(it.Description),
				Date:     itemDate(it),
				Provider: n.Name(),
			})
		}
	}
	// Every feed failing is a provider failure; partial failures are not.
	if len(errs) == len(n.Feeds) {
		return nil, feedsFailed(errs)
	}
	return out, nil
}

// feedsFailed is transient when any feed may recover on retry, permanent only
// when every feed failed permanently.
func feedsFailed(errs []error) error {
	kind := fault.Permanent
	for _, err := range errs {
		if !fault.IsPermanent(err) {
			kind = fault.Transient
			break
		}
	}
	return fault.New(kind, "news", errors.Join(errs...))
}

func (n *News) fetchFeed(ctx context.Context, parser *gofeed.Parser, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fault.Permanentf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")
	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}
	body, err := do(ctx, n.HTTPClient, nil, req)
	if err != nil {
		return nil, err
	}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fault.Transientf("parse feed %s: %w", feedURL, err)
	}
	return feed, nil
}

func matchesAnyKeyword(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func itemDate(it *gofeed.Item) string {
	if it.PublishedParsed != nil {
		return it.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if it.UpdatedParsed != nil {
		return it.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return strings.TrimSpace(it.Published)
}
