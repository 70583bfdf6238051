package export

import "fmt"

// Grid is a rectangular table: one header row followed by data rows of the same width.
type Grid struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Sections are appended after the table by formats that support free text.
	Sections []Section
}

// Section is a headed block of text lines.
type Section struct {
	Heading string
	Lines   []string
}

func (g Grid) validate() error {
	if len(g.Headers) == 0 {
		return fmt.Errorf("grid requires at least one header")
	}
	for i, row := range g.Rows {
		if len(row) != len(g.Headers) {
			return fmt.Errorf("grid row %d has %d cells, want %d", i, len(row), len(g.Headers))
		}
	}
	return nil
}

// Content types served for each rendered format.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
	ContentTypeICS  = "text/calendar; charset=utf-8"
)
