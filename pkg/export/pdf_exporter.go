package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfLineHeight = 4.5
	pdfCellPad    = 1.5
)

// PDFExporter draws a Grid as a landscape table followed by its text sections.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the grid out on A4 landscape pages, repeating the header row after page breaks.
func (e *PDFExporter) Render(grid Grid) ([]byte, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(grid.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	usable := pageW - left - right
	widths := columnWidths(len(grid.Headers), usable)

	drawRow := func(cells []string, bold, fill bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 8)

		lines := make([][]string, len(cells))
		maxLines := 1
		for i, cell := range cells {
			lines[i] = splitCell(pdf, tr(cell), widths[i]-2*pdfCellPad)
			if len(lines[i]) > maxLines {
				maxLines = len(lines[i])
			}
		}
		height := float64(maxLines)*pdfLineHeight + 2*pdfCellPad

		if pdf.GetY()+height > pageH-bottom {
			pdf.AddPage()
		}
		x, y := pdf.GetXY()
		for i := range cells {
			if fill {
				pdf.SetFillColor(230, 236, 245)
				pdf.Rect(x, y, widths[i], height, "FD")
			} else {
				pdf.Rect(x, y, widths[i], height, "D")
			}
			for n, line := range lines[i] {
				pdf.SetXY(x+pdfCellPad, y+pdfCellPad+float64(n)*pdfLineHeight)
				pdf.CellFormat(widths[i]-2*pdfCellPad, pdfLineHeight, line, "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(left, y+height)
	}

	drawRow(grid.Headers, true, true)
	for _, row := range grid.Rows {
		if pdf.GetY()+pdfLineHeight*4 > pageH-bottom {
			pdf.AddPage()
			drawRow(grid.Headers, true, true)
		}
		drawRow(row, false, false)
	}

	for _, section := range grid.Sections {
		if len(section.Lines) == 0 {
			continue
		}
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(section.Heading), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.SetAutoPageBreak(true, bottom)
		for _, line := range section.Lines {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
			pdf.Ln(1)
		}
		pdf.SetAutoPageBreak(false, bottom)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths gives the first (label) column a fixed share and splits the rest evenly.
func columnWidths(n int, usable float64) []float64 {
	widths := make([]float64, n)
	if n == 1 {
		widths[0] = usable
		return widths
	}
	first := usable * 0.12
	rest := (usable - first) / float64(n-1)
	widths[0] = first
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}

func splitCell(pdf *gofpdf.Fpdf, text string, width float64) []string {
	out := make([]string, 0, 3)
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			out = append(out, "")
			continue
		}
		for _, line := range pdf.SplitLines([]byte(para), width) {
			out = append(out, string(line))
		}
	}
	return out
}
