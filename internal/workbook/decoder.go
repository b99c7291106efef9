// Package workbook decodes uploaded spreadsheet files into core.Workbook
// values of typed cells.
//
// The format is detected from the file's leading bytes, not its name:
// Office Open XML packages (.xlsx) are ZIP archives, legacy .xls workbooks
// are OLE2 compound documents, and anything that looks like text is read as
// CSV. Fully blank rows are elided from every sheet.
package workbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

var (
	// ErrUnsupportedFormat is returned for binary files that are neither xlsx nor xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned for zero-length uploads.
	ErrEmptyFile = errors.New("empty file")
)

// Format identifies a spreadsheet container format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// sniffLen is how many leading bytes DetectFormat inspects.
const sniffLen = 512

// DetectFormat classifies a file from its first bytes.
func DetectFormat(head []byte) (Format, error) {
	switch {
	case len(head) == 0:
		return "", ErrEmptyFile
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, oleMagic):
		return FormatXLS, nil
	case looksLikeText(head):
		return FormatCSV, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// looksLikeText rejects data containing control bytes other than tab and
// line breaks. Bytes above 0x7F pass so that legacy single-byte encodings
// reach the CSV reader.
func looksLikeText(head []byte) bool {
	for _, b := range head {
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			return false
		}
	}
	return true
}

// Decoder implements core.Decoder for xlsx, xls and csv files.
type Decoder struct {
	// CSVComma forces the CSV delimiter. Zero means detect from the first line.
	CSVComma rune
}

// New returns a Decoder with delimiter detection enabled.
func New() *Decoder {
	return &Decoder{}
}

// Decode reads the file at path. name is used for error messages and as the
// sheet name of CSV files. Every failure other than context cancellation is
// returned as a *core.DecodeError.
func (d *Decoder) Decode(ctx context.Context, name, path string) (*core.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := sniff(path)
	if err != nil {
		return nil, core.NewDecodeError(name, err)
	}

	var wb *core.Workbook
	switch format {
	case FormatXLSX:
		wb, err = decodeXLSX(ctx, path)
	case FormatXLS:
		wb, err = decodeXLS(ctx, path)
	default:
		wb, err = decodeCSV(ctx, name, path, d.CSVComma)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, core.NewDecodeError(name, fmt.Errorf("%s: %w", format, err))
	}

	wb.Name = name
	return wb, nil
}

func sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return DetectFormat(head[:n])
}

// appendRow adds row to rows unless every cell is empty.
func appendRow(rows []core.RawRow, row core.RawRow) []core.RawRow {
	for _, c := range row {
		if !c.IsEmpty() {
			return append(rows, row)
		}
	}
	return rows
}
