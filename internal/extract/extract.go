// Package extract turns candidate references into readable text. A Strategy
// does the work for one reference; Extractor wraps it with retries, failure
// classification and truncation so callers always get a research.Source.
package extract

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/fetch"
	"github.com/hyperifyio/quickresearch/internal/research"
	"github.com/hyperifyio/quickresearch/internal/retry"
	"github.com/hyperifyio/quickresearch/internal/search"
)

// DefaultMaxChars caps extracted text when Extractor.MaxChars is zero.
const DefaultMaxChars = 2000

// Document is a simplified representation of extracted page content.
type Document struct {
	Title string
	URL   string
	Date  string
	Text  string
}

// Strategy extracts one reference in a single attempt. Errors should be
// classified with package fault; unclassified errors count as transient.
type Strategy interface {
	Extract(ctx context.Context, ref search.Result) (Document, error)
	Name() string
}

// Fetcher is the subset of fetch.Client the HTML strategies need.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (fetch.Page, error)
}

func fetchRef(ctx context.Context, f Fetcher, ref search.Result) (fetch.Page, error) {
	if f == nil {
		return fetch.Page{}, fault.Permanentf("no fetcher configured")
	}
	u := strings.TrimSpace(ref.URL)
	if u == "" {
		return fetch.Page{}, fault.Permanentf("reference %q has no URL", ref.Title)
	}
	return f.Get(ctx, u)
}

// Extractor applies the retry policy and output contract around a Strategy.
type Extractor struct {
	Strategy Strategy
	Policy   retry.Policy
	// MaxChars caps the returned text in runes. Zero means DefaultMaxChars.
	MaxChars int
}

// Extract never fails: a permanent fault or exhausted retries produce a
// Source with empty Text and the Failure kind set.
func (e *Extractor) Extract(ctx context.Context, ref search.Result) research.Source {
	name := e.Strategy.Name()
	doc, err := retry.Value(ctx, e.Policy, "extract "+name, func(ctx context.Context, attempt int) (Document, error) {
		d, err := e.Strategy.Extract(ctx, ref)
		if err != nil {
			return Document{}, err
		}
		if strings.TrimSpace(d.Text) == "" {
			return Document{}, fault.Permanentf("%s yielded no text", ref.Ref())
		}
		return d, nil
	})
	if err != nil {
		kind := fault.KindOf(err)
		log.Warn().Err(err).Str("ref", ref.Ref()).Str("strategy", name).Str("kind", kind.String()).Msg("extraction failed")
		title := ref.Title
		if title == "" {
			title = ref.Ref()
		}
		return research.Source{
			Title:   research.StringPtr(title),
			URL:     ref.URL,
			Date:    research.StringPtr(ref.Date),
			Failure: kind,
		}
	}

	text := Truncate(norm.NFC.String(strings.TrimSpace(doc.Text)), e.maxChars())
	src := research.Source{
		Title: research.StringPtr(firstNonEmpty(doc.Title, ref.Title)),
		URL:   firstNonEmpty(doc.URL, ref.URL),
		Date:  research.StringPtr(firstNonEmpty(doc.Date, ref.Date)),
		Text:  text,
	}
	log.Debug().Str("ref", ref.Ref()).Str("strategy", name).Int("chars", len([]rune(text))).Msg("extracted")
	return src
}

func (e *Extractor) maxChars() int {
	if e.MaxChars > 0 {
		return e.MaxChars
	}
	return DefaultMaxChars
}

// Truncate keeps the first max runes of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
