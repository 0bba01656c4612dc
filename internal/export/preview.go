package export

import (
	"fmt"
	"strings"
)

// Preview renders each page of doc as plain text for on-screen display.
// bold, when non-nil, decorates emphasized lines. Blank rows stand in for
// the vertical gaps between turns so page breaks match the PDF.
func Preview(doc *Document, bold func(string) string) []string {
	o := doc.Options
	pages := make([]string, 0, len(doc.Pages))

	for i, page := range doc.Pages {
		var sb strings.Builder

		cursor := o.MarginTop
		if i == 0 && doc.Title != "" {
			title := doc.Title
			if bold != nil {
				title = bold(title)
			}
			pad := (o.WrapWidth - len(doc.Title)) / 2
			if pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
			sb.WriteString(title)
			sb.WriteString("\n\n")
			cursor += o.titleHeight()
		}

		for _, line := range page.Lines {
			// a half-line gap or more between lines reads as a blank row
			if line.Y-cursor >= o.LineHeight/2 {
				sb.WriteString("\n")
			}
			text := line.Text
			if line.Bold && bold != nil {
				text = bold(text)
			}
			sb.WriteString(text)
			sb.WriteString("\n")
			cursor = line.Y + o.LineHeight
		}

		fmt.Fprintf(&sb, "\n%s\n", pageFooter(page.Number, len(doc.Pages)))
		pages = append(pages, sb.String())
	}

	return pages
}

func pageFooter(n, total int) string {
	return fmt.Sprintf("Page %d of %d", n, total)
}
