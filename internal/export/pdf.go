package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const pdfFont = "Helvetica"

// WritePDF draws doc with fpdf. Every line lands where Layout put it; the
// writer makes no layout decisions of its own.
func WritePDF(w io.Writer, doc *Document) error {
	o := doc.Options

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: o.PageWidth, Ht: o.PageHeight},
	})
	pdf.SetMargins(o.MarginLeft, o.MarginTop, o.MarginLeft)
	pdf.SetAutoPageBreak(false, o.MarginBottom)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("iqrachat", true)
	pdf.SetCatalogSort(true)
	if !doc.Created.IsZero() {
		pdf.SetCreationDate(doc.Created)
		pdf.SetModificationDate(doc.Created)
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if pdf.Err() {
		// no code page map available; draw the text unchanged
		pdf.ClearError()
		tr = func(s string) string { return s }
	}

	for i, page := range doc.Pages {
		pdf.AddPage()

		if i == 0 && doc.Title != "" {
			pdf.SetFont(pdfFont, "B", o.TitleSize)
			pdf.SetXY(o.MarginLeft, o.MarginTop)
			pdf.CellFormat(o.PageWidth-2*o.MarginLeft, o.TitleSize, tr(doc.Title), "", 0, "C", false, 0, "")
		}

		for _, line := range page.Lines {
			style := ""
			if line.Bold {
				style = "B"
			}
			pdf.SetFont(pdfFont, style, o.FontSize)
			// Text positions the baseline
			pdf.Text(o.MarginLeft, line.Y+o.FontSize, tr(line.Text))
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
