package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders a Grid into a single-sheet workbook.
type XLSXExporter struct {
	SheetName      string
	FirstColWidth  float64
	OtherColsWidth float64
}

// NewXLSXExporter returns an exporter writing sheet "Timetable" with widths 15 and 30.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{SheetName: "Timetable", FirstColWidth: 15, OtherColsWidth: 30}
}

// Render writes headers in row 1 and each grid row below it.
func (e *XLSXExporter) Render(grid Grid) ([]byte, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := e.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	for col, header := range grid.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	for r, row := range grid.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(grid.Headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if len(grid.Rows) > 0 {
		bottomRight := fmt.Sprintf("%s%d", lastCol, len(grid.Rows)+1)
		if err := f.SetCellStyle(sheet, "A2", bottomRight, cellStyle); err != nil {
			return nil, fmt.Errorf("style body: %w", err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", e.FirstColWidth); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if len(grid.Headers) > 1 {
		if err := f.SetColWidth(sheet, "B", lastCol, e.OtherColsWidth); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
