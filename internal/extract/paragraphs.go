package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/search"
)

// DefaultMaxParagraphs is how many <p> elements Paragraphs keeps by default.
const DefaultMaxParagraphs = 5

// Paragraphs is the generic scraper: it keeps the text of the first
// MaxParagraphs non-empty <p> elements joined by a single space.
type Paragraphs struct {
	Fetcher       Fetcher
	MaxParagraphs int
}

func (p *Paragraphs) Name() string { return "paragraphs" }

func (p *Paragraphs) Extract(ctx context.Context, ref search.Result) (Document, error) {
	page, err := fetchRef(ctx, p.Fetcher, ref)
	if err != nil {
		return Document{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Document{}, fault.Transientf("parse html: %w", err)
	}
	limit := p.MaxParagraphs
	if limit <= 0 {
		limit = DefaultMaxParagraphs
	}
	parts := make([]string, 0, limit)
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			parts = append(parts, t)
		}
		return len(parts) < limit
	})
	title := strings.TrimSpace(doc.Find("head title").First().Text())
	return Document{
		Title: title,
		URL:   page.URL,
		Text:  strings.Join(parts, " "),
	}, nil
}
