// Package render writes a research.Result as JSON, Markdown, PDF or DOCX.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperifyio/quickresearch/internal/research"
)

// Format names accepted by Write.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatPDF      = "pdf"
	FormatDOCX     = "docx"
)

// Write renders res in format. Text formats go to path, or to stdout when
// path is empty; binary formats require a path.
func Write(format string, res research.Result, path string, stdout io.Writer) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return writeText(path, stdout, func(w io.Writer) error { return JSON(w, res) })
	case FormatMarkdown, "md":
		return writeText(path, stdout, func(w io.Writer) error {
			_, err := io.WriteString(w, Markdown(res))
			return err
		})
	case FormatPDF:
		if path == "" {
			return fmt.Errorf("pdf output requires -output")
		}
		return WritePDF(res, path)
	case FormatDOCX:
		if path == "" {
			return fmt.Errorf("docx output requires -output")
		}
		return WriteDOCX(res, path)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// JSON writes the boundary response shape, indented.
func JSON(w io.Writer, res research.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Markdown renders a title, the summary and a numbered source list with
// links where a URL is known.
func Markdown(res research.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", res.Query)
	sb.WriteString("## Summary\n\n")
	sb.WriteString(strings.TrimSpace(res.Summary))
	sb.WriteString("\n\n## Sources\n\n")
	if len(res.Sources) == 0 {
		sb.WriteString("No sources found.\n")
		return sb.String()
	}
	for i, s := range res.Sources {
		title := sourceTitle(s)
		if s.URL != "" {
			fmt.Fprintf(&sb, "%d. [%s](%s)", i+1, title, s.URL)
		} else {
			fmt.Fprintf(&sb, "%d. %s", i+1, title)
		}
		if d := research.Deref(s.Date); d != "" {
			fmt.Fprintf(&sb, " (%s)", d)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func sourceTitle(s research.Source) string {
	if t := research.Deref(s.Title); t != "" {
		return t
	}
	if s.URL != "" {
		return s.URL
	}
	return "Untitled"
}
