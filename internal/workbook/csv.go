package workbook

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader drops a leading UTF-8 byte order mark, which Excel adds
// when saving "CSV UTF-8" files.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if head, err := r.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// decodeCSV reads a delimited text file as a single sheet named after the
// file. Input that is not valid UTF-8 is decoded as Windows-1252, the code
// page regional Excel installs export with.
func decodeCSV(ctx context.Context, name, path string, comma rune) (*core.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var src io.Reader = NewBOMSkippingReader(bytes.NewReader(data))
	if !utf8.Valid(data) {
		src = charmap.Windows1252.NewDecoder().Reader(src)
	}

	br := bufio.NewReader(src)
	if comma == 0 {
		comma = detectDelimiter(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []core.RawRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(core.RawRow, len(record))
		for i, field := range record {
			row[i] = csvCell(field)
		}
		rows = appendRow(rows, row)
	}

	sheet := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return &core.Workbook{Sheets: []core.Sheet{{Name: sheet, Rows: rows}}}, nil
}

func csvCell(s string) core.Cell {
	if s == "" {
		return core.Cell{}
	}
	if f, ok := parseNumber(s); ok {
		return core.NumberCell(f)
	}
	return core.TextCell(s)
}

// detectDelimiter picks ';', tab or ',' by counting unquoted occurrences in
// the first line. Ties and lines without any candidate default to ','.
func detectDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	counts := map[byte]int{}
	inQuote := false
	for _, b := range head {
		switch {
		case b == '"':
			inQuote = !inQuote
		case !inQuote && (b == ',' || b == ';' || b == '\t'):
			counts[b]++
		}
	}

	best := byte(',')
	for _, c := range []byte{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return rune(best)
}
