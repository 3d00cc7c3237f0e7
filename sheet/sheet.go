// Package sheet is a small in-memory model for tabular workbook data.
//
// The schedule parser in the root package only ever sees this model; how
// the cells got here (an xlsx file, a test fixture) is this package's
// problem.
package sheet

import (
	"fmt"
	"strings"
	"time"
)

// Kind describes what a cell holds.
type Kind int

const (
	Empty Kind = iota
	Text
	Number
	DateTime
	TimeOfDay
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "EMPTY"
	case Text:
		return "TEXT"
	case Number:
		return "NUMBER"
	case DateTime:
		return "DATETIME"
	case TimeOfDay:
		return "TIME"
	}
	return "UNKNOWN"
}

// Cell is a single typed workbook cell. Exactly one of the value fields
// is meaningful, selected by Kind.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

func TextCell(s string) Cell     { return Cell{Kind: Text, Text: s} }
func NumberCell(f float64) Cell  { return Cell{Kind: Number, Number: f} }
func DateCell(t time.Time) Cell  { return Cell{Kind: DateTime, Time: t} }
func ClockCell(t time.Time) Cell { return Cell{Kind: TimeOfDay, Time: t} }

// Blank reports whether the cell carries no usable value: either it is
// empty or it holds whitespace-only text.
func (c Cell) Blank() bool {
	return c.Kind == Empty || (c.Kind == Text && strings.TrimSpace(c.Text) == "")
}

// String renders the cell for error messages.
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Text
	case Number:
		if c.Number == float64(int64(c.Number)) {
			return fmt.Sprintf("%d", int64(c.Number))
		}
		return fmt.Sprintf("%g", c.Number)
	case DateTime:
		return c.Time.Format("2006-01-02 15:04:05")
	case TimeOfDay:
		return c.Time.Format("15:04:05")
	}
	return ""
}

// Sheet is a rectangle of cells. Row 0 is the header row.
type Sheet struct {
	Rows [][]Cell
}

// Cell returns the cell at (row, col), or an empty cell when the
// coordinates fall outside the populated area.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) {
		return Cell{}
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return Cell{}
	}
	return r[col]
}
