package workbook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		head    []byte
		want    Format
		wantErr error
	}{
		{"zip package", []byte("PK\x03\x04rest"), FormatXLSX, nil},
		{"ole2 document", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, FormatXLS, nil},
		{"utf-8 text", []byte("nopol,saldo\n"), FormatCSV, nil},
		{"latin-1 text", []byte("cabang\nS\xE3o Paulo"), FormatCSV, nil},
		{"empty", nil, "", ErrEmptyFile},
		{"pdf", []byte("%PDF-1.7\n\x00\x01\x02"), "", ErrUnsupportedFormat},
		{"png", []byte("\x89PNG\r\n\x1a\n"), "", ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.head)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty file", nil, ErrEmptyFile},
		{"binary file", []byte{0x00, 0x01, 0x02, 0x03}, ErrUnsupportedFormat},
		{"corrupt xlsx", []byte("PK\x03\x04 this is not a zip archive"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "upload.tmp", tt.data)

			wb, err := New().Decode(context.Background(), "broken.xlsx", path)
			require.Error(t, err)
			assert.Nil(t, wb)
			assert.True(t, core.IsDecodeError(err), "want *core.DecodeError, got %T", err)
			assert.Contains(t, err.Error(), `"broken.xlsx"`)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecode_MissingFile(t *testing.T) {
	_, err := New().Decode(context.Background(), "gone.xlsx", "/nonexistent/upload.tmp")
	require.Error(t, err)
	assert.True(t, core.IsDecodeError(err))
}

func TestDecode_CanceledContext(t *testing.T) {
	path := writeFile(t, "upload.tmp", []byte("nopol\nB1\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Decode(ctx, "x.csv", path)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, core.IsDecodeError(err))
}
