package workbook

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// builtinDateFormats are the predefined number format ids that render dates.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// isoLayouts are accepted for cells stored with the ISO 8601 date type.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func decodeXLSX(ctx context.Context, path string) (*core.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	r := &xlsxReader{file: f, date1904: date1904, styles: make(map[int]bool)}

	wb := &core.Workbook{}
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := r.sheetRows(name)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, core.Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}

type xlsxReader struct {
	file     *excelize.File
	date1904 bool
	styles   map[int]bool // style index -> renders as date
}

func (r *xlsxReader) sheetRows(sheet string) ([]core.RawRow, error) {
	raw, err := r.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	var rows []core.RawRow
	for i, values := range raw {
		row := make(core.RawRow, len(values))
		for j, v := range values {
			if v == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			row[j] = r.cell(sheet, cellName, v)
		}
		rows = appendRow(rows, row)
	}
	return rows, nil
}

// cell types the raw value v of the named cell.
func (r *xlsxReader) cell(sheet, name, v string) core.Cell {
	typ, err := r.file.GetCellType(sheet, name)
	if err != nil {
		return core.TextCell(v)
	}

	switch typ {
	case excelize.CellTypeBool:
		return core.BoolCell(v == "1" || strings.EqualFold(v, "true"))
	case excelize.CellTypeDate:
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return core.DateCell(t)
			}
		}
		return core.TextCell(v)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return core.TextCell(v)
		}
		if r.isDateStyled(sheet, name) {
			if t, err := excelize.ExcelDateToTime(f, r.date1904); err == nil {
				return core.DateCell(t)
			}
		}
		return core.NumberCell(f)
	default:
		// shared and inline strings, formula string results, error values
		return core.TextCell(v)
	}
}

func (r *xlsxReader) isDateStyled(sheet, name string) bool {
	idx, err := r.file.GetCellStyle(sheet, name)
	if err != nil || idx == 0 {
		return false
	}
	if isDate, ok := r.styles[idx]; ok {
		return isDate
	}

	isDate := false
	if style, err := r.file.GetStyle(idx); err == nil {
		switch {
		case builtinDateFormats[style.NumFmt]:
			isDate = true
		case style.CustomNumFmt != nil:
			isDate = isDateFormat(*style.CustomNumFmt)
		}
	}
	r.styles[idx] = isDate
	return isDate
}

// isDateFormat reports whether a custom number format code renders a date
// or time. Quoted literals, escaped characters and bracketed sections such as
// colors or locales are ignored.
func isDateFormat(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	runes := []rune(strings.ToLower(code))
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			b.WriteRune(c)
		}
	}
	return strings.ContainsAny(b.String(), "ydh")
}
