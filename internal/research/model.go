// Package research holds the request/response model and the pipeline that
// turns a query into a cited summary.
package research

import (
	"errors"
	"strings"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

// Style is the requested summary format. Unknown non-empty styles are passed
// to the summarizer verbatim as a formatting hint.
type Style string

const (
	StyleBullet    Style = "bullet"
	StyleParagraph Style = "paragraph"
	StyleTable     Style = "table"
)

const (
	// DefaultMaxResults matches the request default of the HTTP API.
	DefaultMaxResults = 5
	// MaxResultsCap bounds how many candidates a single query may request.
	MaxResultsCap = 10
)

var (
	ErrEmptyQuery      = errors.New("query text is empty")
	ErrInvalidMaxCount = errors.New("max results must be at least 1")
)

// Query is an accepted research request. It is immutable once built by NewQuery.
type Query struct {
	Text       string
	MaxResults int
	Style      Style
}

// NewQuery validates and normalizes a request. maxResults above
// MaxResultsCap is clamped; an empty style becomes StyleBullet.
func NewQuery(text string, maxResults int, style string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, ErrEmptyQuery
	}
	if maxResults < 1 {
		return Query{}, ErrInvalidMaxCount
	}
	if maxResults > MaxResultsCap {
		maxResults = MaxResultsCap
	}
	s := Style(strings.ToLower(strings.TrimSpace(style)))
	if s == "" {
		s = StyleBullet
	}
	return Query{Text: text, MaxResults: maxResults, Style: s}, nil
}

// Source is one extracted document. Text == "" marks a failed extraction;
// such sources never reach the summarizer or a Result.
type Source struct {
	Title *string `json:"title"`
	URL   string  `json:"url"`
	Date  *string `json:"date"`
	Text  string  `json:"text"`

	// Failure records why Text is empty. It is not part of the wire format.
	Failure fault.Kind `json:"-"`
}

// OK reports whether the source carries usable text.
func (s Source) OK() bool { return s.Text != "" }

// Result is the pipeline output. Sources preserve discovery order with
// failed extractions removed.
type Result struct {
	Query   string   `json:"query"`
	Summary string   `json:"summary"`
	Sources []Source `json:"sources"`
}

// StringPtr returns nil for an empty (after trimming) string, else a pointer to s.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
