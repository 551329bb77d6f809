package export

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes headers in bold on a frozen first row and stores numeric
// columns as numbers so totals can be recomputed in the spreadsheet.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := sheetName(data.Title)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, fmt.Errorf("resolve last column: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("style xlsx headers: %w", err)
	}

	rowNum := 2
	for _, row := range data.Rows {
		if err := e.writeRow(f, sheet, rowNum, data, row); err != nil {
			return nil, err
		}
		rowNum++
	}
	if len(data.Footer) > 0 {
		if err := e.writeRow(f, sheet, rowNum, data, data.Footer); err != nil {
			return nil, err
		}
		first, _ := excelize.CoordinatesToCellName(1, rowNum)
		last, _ := excelize.CoordinatesToCellName(len(data.Headers), rowNum)
		if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
			return nil, fmt.Errorf("style xlsx footer: %w", err)
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("size xlsx columns: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze xlsx header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *XLSXExporter) writeRow(f *excelize.File, sheet string, rowNum int, data Dataset, row map[string]string) error {
	values := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		raw := row[h]
		values[i] = raw
		if data.isNumeric(h) {
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				values[i] = n
			}
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("resolve xlsx cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write xlsx row: %w", err)
	}
	return nil
}

// sheetName trims the title to the 31 characters Excel accepts and strips
// characters forbidden in sheet names.
func sheetName(title string) string {
	if title == "" {
		return "Report"
	}
	cleaned := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		cleaned = append(cleaned, r)
	}
	if utf8.RuneCountInString(string(cleaned)) > maxSheetName {
		cleaned = cleaned[:maxSheetName]
	}
	if len(cleaned) == 0 {
		return "Report"
	}
	return string(cleaned)
}
