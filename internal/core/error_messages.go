package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code when reporting a problem.
//
// Errors are matched first by identity (errors.Is against the sentinel
// errors of the table, filter, dataio and core packages), then by message
// pattern for errors that come from the standard library or the transport.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the upload exceeds the configured size limit
//	FILE002 - Malformed file: ragged rows or broken quoting
//	FILE003 - Unreadable file: the parser failed for another reason
//	FILE004 - No file: the request carried no file
//	FILE005 - Empty file: nothing to load
//	FILE006 - Unsupported format: only .csv and .xlsx are accepted
//
// # Validation Errors (VAL001-VAL099)
//
// Raised by cell edits and filter values that do not fit the column type,
// and by references to rows or columns that do not exist:
//
//	VAL001 - Invalid date
//	VAL002 - Invalid number
//	VAL003 - Invalid boolean
//	VAL004 - Row out of range
//	VAL005 - Column not found
//
// # Filter Warnings (FLT001-FLT099)
//
//	FLT001 - Empty filter result: the unfiltered table is shown instead
//
// # Session Errors (SES001-SES099)
//
//	SES001 - No data: upload a file before editing
//	SES002 - Not editing: edit actions need the Edit page
//	SES003 - Empty dataset: nothing to export
//	SES004 - Session expired: a new session was started
//	SES005 - Unknown page
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Authentication (AUTH001-AUTH099)
//
// Written by the API key middleware before a request reaches a handler:
//
//	AUTH001 - Missing API key
//	AUTH002 - Invalid API key
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the original
// technical error, keyed by request ID.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/DataEditor/internal/dataio"
	"github.com/JonMunkholm/DataEditor/internal/filter"
	"github.com/JonMunkholm/DataEditor/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// sentinelMessages maps known errors to user messages. Checked in order
// with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	// File errors
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{dataio.ErrMalformedInput, UserMessage{"The file could not be parsed", "Check that every row has the same number of fields and quotes are balanced", "FILE002"}},
	{dataio.ErrUnknownRead, UserMessage{"The file could not be read", "Re-save the file as CSV (UTF-8) or XLSX and try again", "FILE003"}},
	{ErrNoFile, UserMessage{"No file was selected", "Choose a CSV or XLSX file to upload", "FILE004"}},
	{dataio.ErrEmptyInput, UserMessage{"The uploaded file is empty", "Upload a file with a header row", "FILE005"}},
	{dataio.ErrUnsupportedFormat, UserMessage{"This file type is not supported", "Upload a .csv or .xlsx file", "FILE006"}},

	// Validation errors
	{table.ErrInvalidTimestamp, UserMessage{"Invalid date format detected", "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024", "VAL001"}},
	{table.ErrInvalidNumber, UserMessage{"Invalid number format detected", "Remove currency symbols and use standard decimal format", "VAL002"}},
	{table.ErrInvalidBoolean, UserMessage{"Invalid true/false value", "Use true/false, yes/no, t/f, y/n or 1/0", "VAL003"}},
	{table.ErrRowOutOfRange, UserMessage{"That row does not exist", "Refresh the table and try again", "VAL004"}},
	{table.ErrColumnNotFound, UserMessage{"Column not found", "Refresh the table; the column may have been deleted", "VAL005"}},

	// Filter warnings
	{filter.ErrEmptyFilterResult, UserMessage{"No rows match this filter", "Showing all rows; try a different value", "FLT001"}},

	// Session errors
	{ErrNoData, UserMessage{"No data has been uploaded yet", "Upload a file first", "SES001"}},
	{ErrNotEditing, UserMessage{"Editing is only possible on the Edit page", "Open the Edit page and try again", "SES002"}},
	{ErrEmptyDataset, UserMessage{"There is no data to export", "Add rows or upload a new file", "SES003"}},
	{ErrSessionNotFound, UserMessage{"Your session has expired", "Upload your file again", "SES004"}},
	{ErrUnknownPage, UserMessage{"Unknown page", "Choose Upload, Edit or View", "SES005"}},

	// Upload errors
	{ErrTooManyUploads, UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that arrive as plain text (for example from
// net/http). Matched case-insensitively with strings.Contains; first match
// wins.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg:     sentinelMessages[0].msg,
	},
	{
		pattern: "no such file",
		msg:     sentinelMessages[3].msg,
	},
	{
		pattern: "multipart",
		msg: UserMessage{
			Message: "The upload request was malformed",
			Action:  "Select the file again and retry",
			Code:    "FILE007",
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
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := sess.SetCell(ctx, 0, "age", "forty")
//	msg := MapError(err)
//	// msg.Code == "VAL002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
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

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown to users.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
