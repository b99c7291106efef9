package workbook

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shakinm/xlsReader/xls"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// decodeXLS reads a BIFF8 workbook. The reader exposes cell text only, so
// values that parse as numbers become number cells and everything else stays
// text. Date serials in .xls files arrive as plain numbers.
func decodeXLS(ctx context.Context, path string) (wb *core.Workbook, err error) {
	// The BIFF parser panics on some truncated records.
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	book, err := xls.OpenFile(path)
	if err != nil {
		return nil, err
	}

	wb = &core.Workbook{}
	for i := 0; i < book.GetNumberSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet, err := book.GetSheet(i)
		if err != nil {
			return nil, err
		}
		if sheet == nil {
			continue
		}

		var rows []core.RawRow
		for _, r := range sheet.GetRows() {
			cols := r.GetCols()
			row := make(core.RawRow, len(cols))
			for j, col := range cols {
				row[j] = xlsCell(col.GetString())
			}
			rows = appendRow(rows, row)
		}
		wb.Sheets = append(wb.Sheets, core.Sheet{Name: sheet.GetName(), Rows: rows})
	}
	return wb, nil
}

func xlsCell(s string) core.Cell {
	if s == "" {
		return core.Cell{}
	}
	if f, ok := parseNumber(s); ok {
		return core.NumberCell(f)
	}
	return core.TextCell(s)
}

// parseNumber accepts plain decimal literals only, so values like "0812",
// "1e3" or "Inf" typed as text keep their original form.
func parseNumber(s string) (float64, bool) {
	if !numberLiteral(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func numberLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return false
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && digits <= maxExactDigits && dots <= 1
}

// maxExactDigits is the longest digit run a float64 holds exactly. Longer
// runs, such as chassis numbers typed as digits, stay text.
const maxExactDigits = 15
