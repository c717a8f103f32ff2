package invoice

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfPageWidth    = 190.0 // A4 minus 10mm margins
	pdfFirstColumn  = 60.0
	pdfRowHeight    = 8.0
	pdfFieldHeight  = 7.0
	pdfTitleHeight  = 10.0
	pdfSectionSpace = 4.0
)

// RenderPDF writes the document as a single A4 PDF.
func RenderPDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(doc.Title+" "+doc.Number, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, pdfTitleHeight, tr(doc.Title+": "+doc.Number), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, f := range doc.Header {
		pdf.CellFormat(0, pdfFieldHeight, tr(f.Label+": "+f.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(pdfSectionSpace)

	widths := columnWidths(len(doc.Columns))

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(242, 242, 242)
	for i, col := range doc.Columns {
		pdf.CellFormat(widths[i], pdfRowHeight, tr(col), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range doc.Rows {
		if row.Placeholder {
			text := ""
			if len(row.Cells) > 0 {
				text = row.Cells[0]
			}
			pdf.CellFormat(pdfPageWidth, pdfRowHeight, tr(text), "1", 1, "C", false, 0, "")
			continue
		}
		for i := range widths {
			cell := ""
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			pdf.CellFormat(widths[i], pdfRowHeight, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(pdfSectionSpace)

	for _, f := range doc.Footer {
		pdf.CellFormat(0, pdfFieldHeight, tr(f.Label+": "+f.Value), "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("invoice: failed to write pdf: %w", err)
	}
	return nil
}

func columnWidths(n int) []float64 {
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []float64{pdfPageWidth}
	}
	widths := make([]float64, n)
	widths[0] = pdfFirstColumn
	rest := (pdfPageWidth - pdfFirstColumn) / float64(n-1)
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}
