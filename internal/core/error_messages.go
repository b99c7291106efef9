// error_messages.go maps technical errors to user-facing messages.
//
// # Error Codes Reference
//
// Technical errors are mapped to user-friendly messages with a short code
// that users can quote when reporting problems.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Split the workbook into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unsupported format: File is not an xlsx, xls or csv spreadsheet
//	          Action: Save the file as .xlsx and upload it again
//	          Patterns: "unsupported file format"
//
//	FILE003 - Unreadable workbook: The spreadsheet could not be opened
//	          Action: Open the file in a spreadsheet program and save it again
//	          Patterns: "decode workbook"
//
//	FILE004 - No file: No file uploaded
//	          Action: Choose a spreadsheet and submit the form again
//	          Patterns: "no file uploaded"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Upload a spreadsheet that contains data rows
//	          Patterns: "empty file"
//
// # Ingest Errors (ING001-ING099)
//
//	ING001 - No valid data: No sheet contained a recognizable header and a complete row
//	         Action: Check that a header row names the plate number column
//	         Patterns: "no valid data found"
//
//	ING002 - Invalid registry: The field registry is misconfigured
//	         Action: Contact support
//	         Patterns: "invalid field registry"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB008 - History disabled: no database is configured
//
// # Access Errors
//
//	AUTH001 - Missing or invalid API key
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the logs for the
// original error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: "unsupported file format" errors are wrapped in a decode
// error and must match before "decode workbook".
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the workbook into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the workbook into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File is not an xlsx, xls or csv spreadsheet",
			Action:  "Save the file as .xlsx and upload it again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a spreadsheet that contains data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "decode workbook",
		msg: UserMessage{
			Message: "The spreadsheet could not be opened",
			Action:  "Open the file in a spreadsheet program and save it again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file uploaded",
		msg: UserMessage{
			Message: "No file uploaded",
			Action:  "Choose a spreadsheet and submit the form again",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Ingest Errors (ING001-ING002)
	// =========================================================================
	{
		pattern: "no valid data found",
		msg: UserMessage{
			Message: "No valid data found in the file",
			Action:  "Check that a header row names the plate number column",
			Code:    "ING001",
		},
	},
	{
		pattern: "invalid field registry",
		msg: UserMessage{
			Message: "The field registry is misconfigured",
			Action:  "Contact support",
			Code:    "ING002",
		},
	},

	// =========================================================================
	// Upload Errors (UPL002-UPL005)
	// =========================================================================
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Database Errors (DB004-DB008)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try uploading a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "history disabled",
		msg: UserMessage{
			Message: "Upload history is not enabled on this server",
			Action:  "Configure DATABASE_URL to keep an upload history",
			Code:    "DB008",
		},
	},

	// =========================================================================
	// Access Errors (AUTH001, RATE001)
	// =========================================================================
	{
		pattern: "api key",
		msg: UserMessage{
			Message: "Missing or invalid API key",
			Action:  "Send a valid key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
