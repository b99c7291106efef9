package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "no valid data maps correctly",
			err:         ErrNoValidData,
			wantCode:    "ING001",
			wantMessage: "No valid data found in the file",
		},
		{
			name:        "wrapped no valid data maps correctly",
			err:         fmt.Errorf("normalize %q: %w", "armada.xlsx", ErrNoValidData),
			wantCode:    "ING001",
			wantMessage: "No valid data found in the file",
		},
		{
			name:        "unsupported format wins over decode error",
			err:         NewDecodeError("notes.pdf", errors.New("unsupported file format")),
			wantCode:    "FILE002",
			wantMessage: "File is not an xlsx, xls or csv spreadsheet",
		},
		{
			name:        "decode error maps correctly",
			err:         NewDecodeError("broken.xlsx", errors.New("zip: not a valid zip file")),
			wantCode:    "FILE003",
			wantMessage: "The spreadsheet could not be opened",
		},
		{
			name:        "max bytes error maps correctly",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the upload size limit",
		},
		{
			name:        "limiter rejection maps correctly",
			err:         ErrTooManyUploads,
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other uploads",
		},
		{
			name:        "context cancellation maps correctly",
			err:         context.Canceled,
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "context deadline maps correctly",
			err:         context.DeadlineExceeded,
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error maps to default",
			err:         errors.New("something completely unexpected"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO FILE UPLOADED"),
			wantCode:    "FILE004",
			wantMessage: "No file uploaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoValidData)
	expected := "No valid data found in the file (Code: ING001). Check that a header row names the plate number column"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil is not user facing", nil, false},
		{"known pattern is user facing", ErrTooManyUploads, true},
		{"unknown error is not user facing", errors.New("random error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		userErr := NewUserError(ErrNoValidData)
		if userErr.Error() != "No valid data found in the file" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrNoValidData) {
			t.Error("errors.Is(userErr, ErrNoValidData) = false, want true")
		}
		if userErr.User.Code != "ING001" {
			t.Errorf("User.Code = %q, want ING001", userErr.User.Code)
		}
	})
}
