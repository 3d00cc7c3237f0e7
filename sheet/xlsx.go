package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Layouts tried, in order, when sniffing a formatted cell value. Excel
// stores dates as styled serial numbers; by the time excelize hands the
// value over it is a formatted string, so the loader re-parses it.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/06 15:04",
	"2006-01-02",
	"01-02-06",
	"1/2/2006",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// LoadXLSX reads the first worksheet of an xlsx workbook into a Sheet.
func LoadXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(names[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", names[0], err)
	}
	s := &Sheet{}
	for _, row := range rows {
		cells := make([]Cell, len(row))
		for i, raw := range row {
			cells[i] = sniffCell(raw)
		}
		s.Rows = append(s.Rows, cells)
	}
	return s, nil
}

func sniffCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if raw == "" {
			return Cell{}
		}
		return TextCell(raw)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return DateCell(t)
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return ClockCell(t)
		}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberCell(f)
	}
	return TextCell(raw)
}

// WriteXLSX writes rows into a single worksheet workbook at path.
func WriteXLSX(path, sheetName string, rows [][]Cell) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	for r, row := range rows {
		for c, cell := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			var value interface{}
			switch cell.Kind {
			case Empty:
				continue
			case Text:
				value = cell.Text
			case Number:
				value = cell.Number
			case DateTime, TimeOfDay:
				value = cell.Time
			}
			if err := f.SetCellValue(sheetName, axis, value); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
