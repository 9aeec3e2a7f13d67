package extract

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/search"
)

// Article fetches a page and extracts its main article text with
// readability heuristics. It fills Title and Date from page metadata.
type Article struct {
	Fetcher Fetcher
}

func (a *Article) Name() string { return "article" }

func (a *Article) Extract(ctx context.Context, ref search.Result) (Document, error) {
	page, err := fetchRef(ctx, a.Fetcher, ref)
	if err != nil {
		return Document{}, err
	}
	doc, err := parseArticle(page.Body)
	if err != nil {
		return Document{}, err
	}
	doc.URL = page.URL
	return doc, nil
}

// parseArticle extracts readable text from HTML, preferring <main> or
// <article> and falling back to <body>. Headings, paragraphs, list items and
// pre/code blocks are kept; boilerplate like <nav> and <footer> is skipped.
func parseArticle(input []byte) (Document, error) {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Document{}, fault.Transientf("parse html: %v", err)
	}

	title := strings.TrimSpace(findTitle(node))
	if title == "" {
		title = metaContent(node, "og:title")
	}
	content := contentRoot(node)
	var b strings.Builder
	if content != nil {
		collectText(&b, content, false)
	}
	return Document{
		Title: title,
		Date:  findPublishedDate(node),
		Text:  normalizeWhitespace(b.String()),
	}, nil
}

func contentRoot(n *html.Node) *html.Node {
	for _, tag := range []string{"main", "article", "body"} {
		if c := findFirst(n, tag); c != nil {
			return c
		}
	}
	return nil
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

// findPublishedDate looks at the usual publish-time metadata, then the first
// <time datetime=...> element.
func findPublishedDate(n *html.Node) string {
	for _, key := range []string{"article:published_time", "og:published_time", "datePublished", "date", "dc.date", "pubdate"} {
		if v := metaContent(n, key); v != "" {
			return v
		}
	}
	if t := findFirst(n, "time"); t != nil {
		return strings.TrimSpace(attr(t, "datetime"))
	}
	return ""
}

// metaContent returns the content of the first <meta> whose property, name
// or itemprop equals key (case-insensitive).
func metaContent(n *html.Node, key string) string {
	var out string
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if out != "" {
			return
		}
		if cur.Type == html.ElementNode && cur.Data == "meta" {
			for _, k := range []string{"property", "name", "itemprop"} {
				if strings.EqualFold(attr(cur, k), key) {
					out = strings.TrimSpace(attr(cur, "content"))
					return
				}
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		if isBoilerplateContainer(n) {
			return
		}
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "form":
			return
		case "pre", "code":
			inPre = true
		case "br", "hr", "ul", "ol":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote":
			b.WriteString("\n")
		}
	}

	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.NewReplacer("\t", " ", "\r", " ").Replace(data)
		}
		b.WriteString(data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}

	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
			b.WriteString("\n\n")
		case "li", "pre", "code":
			b.WriteString("\n")
		}
	}
}

// isBoilerplateContainer reports whether the element looks like a cookie or
// consent banner.
func isBoilerplateContainer(n *html.Node) bool {
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if key != "id" && key != "class" && key != "aria-label" && key != "role" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(a.Val)
		if containsAny(val, "cookie", "consent", "gdpr") {
			return true
		}
	}
	return false
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// normalizeWhitespace collapses runs of spaces and keeps at most one blank
// line between blocks.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
