package core

import (
	"strconv"
	"time"
)

// CellKind identifies the decoded type of a spreadsheet cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
	CellBool
)

// Cell is a single raw value as produced by a workbook decoder.
type Cell struct {
	Kind   CellKind
	Text   string    // CellText
	Number float64   // CellNumber
	Time   time.Time // CellDate
	Bool   bool      // CellBool
}

// TextCell returns a text cell. An empty string still counts as text.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }

// DateCell returns a date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Time: t} }

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// IsEmpty reports whether the cell is absent or holds the empty string.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.Text == "")
}

// String converts the cell to its text form.
// Dates without a time component render as 2006-01-02.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		h, m, s := c.Time.Clock()
		if h == 0 && m == 0 && s == 0 {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format("2006-01-02 15:04:05")
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// RawRow is one decoded sheet row, indexed by zero-based column.
type RawRow []Cell

// HeaderMap maps a canonical field key to its zero-based column index.
type HeaderMap map[string]int

// Record holds the cleaned values of one data row, keyed by field.
// Absent fields are missing, never stored as "".
type Record map[string]string

// OutputRow is a record projected onto the registry output order.
type OutputRow []string

// Sheet is one decoded worksheet.
type Sheet struct {
	Name string
	Rows []RawRow
}

// Workbook is a decoded spreadsheet file with sheets in workbook order.
type Workbook struct {
	Name   string
	Sheets []Sheet
}

// SheetReport describes what the engine did with a single sheet.
type SheetReport struct {
	Name        string    `json:"name"`
	HeaderFound bool      `json:"headerFound"`
	HeaderRow   int       `json:"headerRow"` // -1 when no header was found
	Columns     HeaderMap `json:"columns,omitempty"`
	Accepted    int       `json:"accepted"`
	Rejected    int       `json:"rejected"`
}

// Result is the outcome of one workbook pass.
type Result struct {
	Rows   []OutputRow
	Sheets []SheetReport
}

// Accepted returns the total number of emitted rows.
func (r *Result) Accepted() int { return len(r.Rows) }

// Rejected returns the number of data rows skipped for missing required fields.
func (r *Result) Rejected() int {
	n := 0
	for _, s := range r.Sheets {
		n += s.Rejected
	}
	return n
}

// SkippedSheets returns how many sheets had no recognizable header.
func (r *Result) SkippedSheets() int {
	n := 0
	for _, s := range r.Sheets {
		if !s.HeaderFound {
			n++
		}
	}
	return n
}

// UploadResult contains the final result of a normalize operation.
type UploadResult struct {
	UploadID string
	FileName string
	Rows     []OutputRow
	Sheets   []SheetReport
	Rejected int
	Summary  Summary
	Duration time.Duration
}
