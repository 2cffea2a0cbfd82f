package table

import "errors"

// Column and row errors.
var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrLengthMismatch  = errors.New("column length mismatch")
	ErrMaskLength      = errors.New("row mask length mismatch")
	ErrRowOutOfRange   = errors.New("row index out of range")
)

// Conversion errors, returned when text cannot be read as a column's type.
var (
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBoolean   = errors.New("invalid boolean")
)
