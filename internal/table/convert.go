package table

// convert.go turns user-entered text into typed cell values.
//
// The same rules serve grid edits, upload type inference and filter
// coercion:
//   - numbers: plain decimal or scientific notation, no currency or grouping;
//     surrounding whitespace is ignored
//   - booleans: exactly true/t/yes/y/1 or false/f/no/n/0, case-insensitive,
//     with no surrounding whitespace
//   - timestamps: best-effort parsing of common calendar formats, stored in
//     UTC; surrounding whitespace is ignored
//
// The ToPg* helpers return pgtype values with Valid=false for empty input, so
// a blank cell is stored as missing rather than rejected.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// integerRegex matches integer literals only.
var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// ParseNumber parses text as an int when it is an integer literal that fits
// in int64, and as a float otherwise.
func ParseNumber(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if integerRegex.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(i), nil
		}
	}
	f, err := ParseFloat(s)
	if err != nil {
		return Value{}, err
	}
	return FloatValue(f), nil
}

// ParseFloat parses text as a float64.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return f, nil
}

// ParseBool accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
// The match is case-insensitive but otherwise exact.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q (use true/false, yes/no, t/f, y/n or 1/0)", ErrInvalidBoolean, s)
	}
}

// ParseTimestamp parses a date or date-time in any common layout.
// Text without a zone is read as UTC; text with an offset is converted to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return t.UTC(), nil
}

// ParseCell converts edited text to a value of the given type.
// Empty text yields a missing value. For TypeInt, a non-integral number comes
// back as a float value; the caller decides whether to promote the column.
func ParseCell(s string, typ ScalarType) (Value, error) {
	if strings.TrimSpace(s) == "" {
		return Null(typ), nil
	}
	switch typ {
	case TypeInt:
		return ParseNumber(s)
	case TypeFloat:
		f, err := ParseFloat(s)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case TypeBool:
		b, err := ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case TypeTimestamp:
		t, err := ParseTimestamp(s)
		if err != nil {
			return Value{}, err
		}
		return TimeValue(t), nil
	default:
		return TextValue(s), nil
	}
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty.
func ToPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgBool converts a string to pgtype.Bool.
// Returns invalid for empty or unrecognised input.
func ToPgBool(s string) pgtype.Bool {
	b, err := ParseBool(s)
	if err != nil {
		return pgtype.Bool{Valid: false}
	}
	return pgtype.Bool{Bool: b, Valid: true}
}

// ToPgTimestamp converts a string to pgtype.Timestamp.
// Returns invalid for empty or unparseable input.
func ToPgTimestamp(s string) pgtype.Timestamp {
	t, err := ParseTimestamp(s)
	if err != nil {
		return pgtype.Timestamp{Valid: false}
	}
	return pgtype.Timestamp{Time: t, Valid: true}
}
