package render

import (
	"fmt"
	"strings"

	"github.com/gingfrederik/docx"

	"github.com/hyperifyio/quickresearch/internal/research"
)

// WriteDOCX writes the summary followed by each source's metadata and text.
func WriteDOCX(res research.Result, path string) error {
	f := docx.NewFile()

	run := f.AddParagraph().AddText(res.Query)
	run.Size(20)
	f.AddParagraph()

	f.AddParagraph().AddText("Summary").Size(16)
	for _, line := range strings.Split(strings.TrimSpace(res.Summary), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			f.AddParagraph().AddText(line)
		}
	}
	f.AddParagraph()

	f.AddParagraph().AddText("Sources").Size(16)
	if len(res.Sources) == 0 {
		f.AddParagraph().AddText("No sources found.")
	}
	for i, s := range res.Sources {
		f.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, sourceTitle(s))).Size(13)
		if s.URL != "" {
			run := f.AddParagraph().AddText(s.URL)
			run.Size(10)
			run.Color("0000FF")
		}
		if d := research.Deref(s.Date); d != "" {
			run := f.AddParagraph().AddText("Date: " + d)
			run.Size(10)
			run.Color("808080")
		}
		for _, para := range strings.Split(s.Text, "\n\n") {
			if para = strings.TrimSpace(para); para != "" {
				f.AddParagraph().AddText(para)
			}
		}
	}
	return f.Save(path)
}
