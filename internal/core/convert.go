package core

// convert.go holds the cell value cleanup rules applied during extraction.
//
// Source sheets come from many branch offices and leasing partners, so the
// same balance may arrive as 1234.5, "1234,50", "1.234,50" or "N/A". The
// rules here only normalize format; they never reject a value.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// decimalRegex matches a plain decimal literal after separator cleanup.
// Exponents are capped at three digits.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d{1,3})?$`)

// isSpace matches the whitespace set stripped from headers and plates,
// including the BOM some exporters leave in the first cell.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// CleanValue trims s and converts comma decimal separators to periods.
func CleanValue(s string) string {
	s = strings.TrimFunc(s, isSpace)
	return strings.ReplaceAll(s, ",", ".")
}

// NormalizeSaldo rounds a cleaned balance to a whole number using banker's rounding.
// Text that is not a number, or a number outside the float64 range, is
// returned unchanged.
//
// When several periods remain, all but the last are grouping separators:
// "1.234.50" parses as 1234.50.
func NormalizeSaldo(s string) string {
	num := s
	if strings.Count(num, ".") > 1 {
		last := strings.LastIndex(num, ".")
		num = strings.ReplaceAll(num[:last], ".", "") + num[last:]
	}
	if !decimalRegex.MatchString(num) {
		return s
	}
	if f, err := strconv.ParseFloat(num, 64); err != nil || math.IsInf(f, 0) {
		return s
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return s
	}
	return d.RoundBank(0).String()
}

// NormalizeNopol removes all whitespace from a plate number.
func NormalizeNopol(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		return r
	}, s)
}

// normalizeField applies the per-field rule to an already cleaned value.
func normalizeField(key, value string) string {
	switch key {
	case FieldSaldo:
		return NormalizeSaldo(value)
	case FieldNopol:
		return NormalizeNopol(value)
	default:
		return value
	}
}
