package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Document is a portrait text document such as lecture notes.
type Document struct {
	Title    string
	Subtitle string
	// Footer is printed after the page counter on every page.
	Footer   string
	Sections []Section
}

// Slide is a single landscape page with a heading and bullet points.
type Slide struct {
	Title   string
	Bullets []string
}

// DocumentExporter renders notes and slide decks with gofpdf.
type DocumentExporter struct{}

// NewDocumentExporter constructs a document exporter.
func NewDocumentExporter() *DocumentExporter {
	return &DocumentExporter{}
}

// RenderNotes produces an A4 portrait PDF with a title block and one block per section.
func (e *DocumentExporter) RenderNotes(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("document requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AliasNbPages("{nb}")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 9)
		label := fmt.Sprintf("Page %d of {nb}", pdf.PageNo())
		if doc.Footer != "" {
			label += " | " + doc.Footer
		}
		pdf.CellFormat(0, 6, tr(label), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 9, tr(doc.Title), "", "C", false)
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "I", 11)
		pdf.MultiCell(0, 6, tr(doc.Subtitle), "", "C", false)
	}
	pdf.Ln(6)

	for _, section := range doc.Sections {
		pdf.SetFont("Arial", "B", 13)
		pdf.MultiCell(0, 7, tr(section.Heading), "", "L", false)
		pdf.Ln(1)
		pdf.SetFont("Arial", "", 11)
		for _, line := range section.Lines {
			pdf.MultiCell(0, 5.5, tr(line), "", "L", false)
			pdf.Ln(1)
		}
		pdf.Ln(3)
	}

	return output(pdf)
}

// RenderSlides produces one landscape page per slide, preceded by a title slide.
func (e *DocumentExporter) RenderSlides(title, subtitle string, slides []Slide) ([]byte, error) {
	if title == "" {
		return nil, fmt.Errorf("slide deck requires a title")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageH := pdf.GetPageSize()

	pdf.AddPage()
	pdf.SetY(pageH/2 - 20)
	pdf.SetFont("Arial", "B", 28)
	pdf.MultiCell(0, 14, tr(title), "", "C", false)
	if subtitle != "" {
		pdf.SetFont("Arial", "", 16)
		pdf.MultiCell(0, 10, tr(subtitle), "", "C", false)
	}

	for i, slide := range slides {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 22)
		pdf.MultiCell(0, 12, tr(slide.Title), "", "L", false)
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 15)
		for _, bullet := range slide.Bullets {
			pdf.MultiCell(0, 8, tr("- "+bullet), "", "L", false)
			pdf.Ln(2)
		}
		pdf.SetY(pageH - 15)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d / %d", i+1, len(slides)), "", 0, "R", false, 0, "")
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
