package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quickresearch/internal/retry"
)

// Result represents a single search hit from any provider. Keyword engines
// fill URL; the knowledge-base provider fills Title only and leaves URL
// empty for the paired extractor to resolve.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet,omitempty"`
	Date     string `json:"date,omitempty"`
	Provider string `json:"-"` // provider name for observability
}

// Ref returns the opaque candidate reference: the URL when known, otherwise
// the page title.
func (r Result) Ref() string {
	if u := strings.TrimSpace(r.URL); u != "" {
		return u
	}
	return strings.TrimSpace(r.Title)
}

// Provider is a minimal interface for search providers. Implementations
// return classified errors (see package fault) and leave retrying to Retrying.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// Retrying applies the retry policy to a Provider and never fails: after the
// attempts are exhausted, or on a permanent fault, it yields no results so
// the pipeline degrades to "no sources found".
type Retrying struct {
	Provider Provider
	Policy   retry.Policy
}

// Find returns at most limit results in provider order.
func (r *Retrying) Find(ctx context.Context, query string, limit int) []Result {
	if r == nil || r.Provider == nil {
		return []Result{}
	}
	name := r.Provider.Name()
	results, err := retry.Value(ctx, r.Policy, "search "+name, func(ctx context.Context, attempt int) ([]Result, error) {
		return r.Provider.Search(ctx, query, limit)
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", name).Str("query", query).Msg("search failed; continuing without sources")
		return []Result{}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []Result{}
	}
	log.Debug().Str("provider", name).Int("count", len(results)).Msg("search complete")
	return results
}
