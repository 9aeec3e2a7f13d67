package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperifyio/quickresearch/internal/fetch"
	"github.com/hyperifyio/quickresearch/internal/search"
)

func mustParseArticle(t *testing.T, b []byte) Document {
	t.Helper()
	doc, err := parseArticle(b)
	if err != nil {
		t.Fatalf("parseArticle: %v", err)
	}
	return doc
}

func TestParseArticle_PrefersMainOverBody(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>Test Page</title></head>
      <body>
        <nav>Nav should be ignored</nav>
        <main>
          <h1>Main Heading</h1>
          <p>This is the main content paragraph.</p>
        </main>
        <footer>Footer text</footer>
      </body>
    </html>`

	doc := mustParseArticle(t, []byte(html))
	if doc.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Main Heading") || !strings.Contains(doc.Text, "This is the main content paragraph.") {
		t.Fatalf("expected main content, got %q", doc.Text)
	}
	if strings.Contains(doc.Text, "Nav should be ignored") || strings.Contains(doc.Text, "Footer text") {
		t.Fatalf("did not expect boilerplate in extracted content: %q", doc.Text)
	}
}

func TestParseArticle_FallbackToBodyAndSkipsConsent(t *testing.T) {
	html := `<html><head><title>No Main</title></head>
      <body>
        <div class="cookie-banner">We use cookies</div>
        <h2>Body Heading</h2>
        <p>Body paragraph</p>
      </body></html>`

	doc := mustParseArticle(t, []byte(html))
	if !strings.Contains(doc.Text, "Body Heading") || !strings.Contains(doc.Text, "Body paragraph") {
		t.Fatalf("expected body content, got %q", doc.Text)
	}
	if strings.Contains(doc.Text, "cookies") {
		t.Fatalf("consent banner leaked into text: %q", doc.Text)
	}
}

func TestParseArticle_PreservesCodeAndListItems(t *testing.T) {
	html := `<html><head><title>Code and List</title></head>
      <body><article>
          <h3>Examples</h3>
          <ul><li>First item</li><li>Second item</li></ul>
          <pre><code>print("hello")
print("world")</code></pre>
      </article></body></html>`

	doc := mustParseArticle(t, []byte(html))
	if !strings.Contains(doc.Text, "First item") || !strings.Contains(doc.Text, "Second item") {
		t.Fatalf("expected list items; got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, `print("hello")`) || !strings.Contains(doc.Text, `print("world")`) {
		t.Fatalf("expected code block content; got %q", doc.Text)
	}
}

func TestParseArticle_MetadataFallbacks(t *testing.T) {
	html := `<html><head>
        <meta property="og:title" content="OG Title">
        <meta property="article:published_time" content="2024-03-01T08:00:00Z">
      </head><body><p>Text</p></body></html>`
	doc := mustParseArticle(t, []byte(html))
	if doc.Title != "OG Title" {
		t.Fatalf("expected og:title fallback, got %q", doc.Title)
	}
	if doc.Date != "2024-03-01T08:00:00Z" {
		t.Fatalf("expected published time, got %q", doc.Date)
	}

	doc = mustParseArticle(t, []byte(`<html><body><article><time datetime="2023-12-24">Dec 24</time><p>x</p></article></body></html>`))
	if doc.Date != "2023-12-24" {
		t.Fatalf("expected <time datetime>, got %q", doc.Date)
	}
}

type stubFetcher struct {
	pages map[string]fetch.Page
	errs  map[string]error
	calls int
}

func (s *stubFetcher) Get(_ context.Context, rawURL string) (fetch.Page, error) {
	s.calls++
	if err, ok := s.errs[rawURL]; ok {
		return fetch.Page{}, err
	}
	p, ok := s.pages[rawURL]
	if !ok {
		return fetch.Page{}, nil
	}
	if p.URL == "" {
		p.URL = rawURL
	}
	return p, nil
}

func TestArticle_ExtractSetsURL(t *testing.T) {
	f := &stubFetcher{pages: map[string]fetch.Page{
		"https://a.example/x": {Body: []byte(`<html><head><title>A</title></head><body><p>Alpha</p></body></html>`)},
	}}
	a := &Article{Fetcher: f}
	doc, err := a.Extract(context.Background(), search.Result{URL: "https://a.example/x"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if doc.URL != "https://a.example/x" || doc.Title != "A" || doc.Text != "Alpha" {
		t.Fatalf("unexpected document: %#v", doc)
	}
}

func TestArticle_TitleOnlyReferenceIsPermanent(t *testing.T) {
	a := &Article{Fetcher: &stubFetcher{}}
	_, err := a.Extract(context.Background(), search.Result{Title: "Only a title"})
	if err == nil || !strings.Contains(err.Error(), "no URL") {
		t.Fatalf("expected no-URL error, got %v", err)
	}
}
