package core

import (
	"errors"
	"fmt"
)

// ErrNoValidData is returned when no sheet of a workbook yielded an accepted record.
var ErrNoValidData = errors.New("no valid data found in the file")

// DecodeError reports that a file could not be read as a spreadsheet at all.
// No partial results accompany it.
type DecodeError struct {
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode workbook %q: %v", e.File, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError wraps err as a DecodeError for file.
func NewDecodeError(file string, err error) *DecodeError {
	return &DecodeError{File: file, Err: err}
}

// IsDecodeError reports whether err is, or wraps, a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
