package extract

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/search"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Markdown converts the page's article root to Markdown so headings, lists
// and code survive into the summarizer input.
type Markdown struct {
	Fetcher Fetcher
}

func (m *Markdown) Name() string { return "markdown" }

func (m *Markdown) Extract(ctx context.Context, ref search.Result) (Document, error) {
	page, err := fetchRef(ctx, m.Fetcher, ref)
	if err != nil {
		return Document{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Document{}, fault.Transientf("parse html: %w", err)
	}
	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("article").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	conv := md.NewConverter("", true, nil)
	conv.Remove("nav", "header", "footer", "aside", "form", "button", "svg", "iframe", "noscript")
	text := conv.Convert(root)
	text = blankRuns.ReplaceAllString(strings.TrimSpace(text), "\n\n")

	meta, _ := parseArticle(page.Body)
	return Document{
		Title: meta.Title,
		URL:   page.URL,
		Date:  meta.Date,
		Text:  text,
	}, nil
}
