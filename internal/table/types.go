// Package table provides the in-memory, column-oriented dataset that every
// session edits.
//
// A [Table] is an ordered list of named [Column]s of equal length. Each column
// declares one [ScalarType] and stores a homogeneous, nullable value sequence;
// a missing cell is a pgtype value with Valid=false. Operations that reshape a
// table (DropColumns, FilterRows, Head, Clone) return a new table and never
// touch their input. Grid edits (SetCell, InsertRow, DeleteRows) mutate the
// receiver in place and validate completely before changing anything.
package table

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ScalarType is the declared type shared by every cell of a column.
type ScalarType int

const (
	TypeText ScalarType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeTimestamp
)

// String returns the lowercase type name used in JSON and the UI.
func (t ScalarType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// IsNumeric reports whether the type is int or float.
func (t ScalarType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// MarshalText implements encoding.TextMarshaler.
func (t ScalarType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ScalarType) UnmarshalText(b []byte) error {
	for _, c := range []ScalarType{TypeText, TypeInt, TypeFloat, TypeBool, TypeTimestamp} {
		if c.String() == string(b) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown column type %q", b)
}

// Value is a single tagged scalar: one cell, or a coerced filter value.
// Only the payload field matching Type is meaningful.
type Value struct {
	Type  ScalarType
	Valid bool
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
	Text  string
}

// Null returns a missing value of the given type.
func Null(t ScalarType) Value { return Value{Type: t} }

func IntValue(i int64) Value { return Value{Type: TypeInt, Valid: true, Int: i} }
func FloatValue(f float64) Value { return Value{Type: TypeFloat, Valid: true, Float: f} }
func BoolValue(b bool) Value { return Value{Type: TypeBool, Valid: true, Bool: b} }
func TimeValue(t time.Time) Value { return Value{Type: TypeTimestamp, Valid: true, Time: t} }
func TextValue(s string) Value { return Value{Type: TypeText, Valid: true, Text: s} }

// Number returns the value as float64. Only meaningful for numeric types.
func (v Value) Number() float64 {
	if v.Type == TypeInt {
		return float64(v.Int)
	}
	return v.Float
}

// Equal compares two values with the native equality of their type.
// Int and float compare numerically with each other. Missing values never
// compare equal, not even to another missing value.
func (v Value) Equal(o Value) bool {
	if !v.Valid || !o.Valid {
		return false
	}
	if v.Type.IsNumeric() && o.Type.IsNumeric() {
		return v.Number() == o.Number()
	}
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeBool:
		return v.Bool == o.Bool
	case TypeTimestamp:
		return v.Time.Equal(o.Time)
	default:
		return v.Text == o.Text
	}
}

// String formats the value for display. Missing values render empty.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return formatFloat(v.Float)
	case TypeBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case TypeTimestamp:
		return v.Time.Format(DateTimeLayout)
	default:
		return v.Text
	}
}

// Interface returns the value as a plain Go value suitable for JSON:
// nil, int64, float64, bool, string (timestamps use RFC 3339 with
// fractional seconds).
func (v Value) Interface() any {
	if !v.Valid {
		return nil
	}
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		if math.IsInf(v.Float, 0) || math.IsNaN(v.Float) {
			return formatFloat(v.Float)
		}
		return v.Float
	case TypeBool:
		return v.Bool
	case TypeTimestamp:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return v.Text
	}
}

// GoString is used by %#v in test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("table.Value{%s %q valid=%v}", v.Type, v.String(), v.Valid)
}

// key returns a string that is identical for values that are Equal.
func (v Value) key() string {
	switch {
	case v.Type.IsNumeric():
		n := v.Number()
		if n == 0 {
			n = 0 // fold -0
		}
		return "n:" + strconv.FormatFloat(n, 'g', -1, 64)
	case v.Type == TypeBool:
		return "b:" + strconv.FormatBool(v.Bool)
	case v.Type == TypeTimestamp:
		return "t:" + strconv.FormatInt(v.Time.UnixNano(), 10)
	default:
		return "s:" + v.Text
	}
}

// Layouts used when rendering timestamps. Whole columns of midnight values
// render date-only. Fractional seconds are printed only when present, so a
// rendered timestamp parses back to the same instant.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05.999999999"
)

// formatFloat renders floats so that whole numbers keep a trailing ".0",
// keeping them distinguishable from ints in exports.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		s = strconv.FormatFloat(f, 'f', 1, 64)
	}
	return s
}
