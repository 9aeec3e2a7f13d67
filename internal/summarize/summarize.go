// Package summarize condenses extracted source texts into one summary.
// Summarizers never return errors: empty input and backend failures map to
// fixed sentinel strings.
package summarize

import (
	"context"
	"strings"

	"github.com/hyperifyio/quickresearch/internal/research"
)

const (
	// NoContent is returned when there is nothing to summarize.
	NoContent = "No content available to summarize."
	// Failed is returned when the backend errors or is unavailable.
	Failed = "An error occurred during summarization."
)

// Summarizer is implemented by every backend.
type Summarizer interface {
	Summarize(ctx context.Context, texts []string, style research.Style) string
}

// nonBlank drops blank entries, preserving order.
func nonBlank(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// truncatePrefix keeps the first max runes of s and reports whether
// anything was dropped. A non-positive max keeps everything.
func truncatePrefix(s string, max int) (string, bool) {
	if max <= 0 {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// styleInstruction describes the requested output format to a chat model.
func styleInstruction(style research.Style) string {
	switch style {
	case research.StyleBullet, "":
		return "Use a concise bulleted list, one key point per bullet."
	case research.StyleParagraph:
		return "Write one or two cohesive paragraphs of plain prose."
	case research.StyleTable:
		return "Use a Markdown table with columns for the topic and the key finding."
	default:
		return "Follow the requested format: " + string(style) + "."
	}
}
