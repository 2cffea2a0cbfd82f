package table

import (
	"math"
	"slices"

	"github.com/jackc/pgx/v5/pgtype"
)

// Column is a named, typed, nullable value sequence.
// Exactly one of the backing slices is in use, selected by the column type.
type Column struct {
	name   string
	typ    ScalarType
	ints   []pgtype.Int8
	floats []pgtype.Float8
	bools  []pgtype.Bool
	times  []pgtype.Timestamp
	texts  []pgtype.Text
}

func NewIntColumn(name string, vals []pgtype.Int8) *Column {
	return &Column{name: name, typ: TypeInt, ints: vals}
}

func NewFloatColumn(name string, vals []pgtype.Float8) *Column {
	return &Column{name: name, typ: TypeFloat, floats: vals}
}

func NewBoolColumn(name string, vals []pgtype.Bool) *Column {
	return &Column{name: name, typ: TypeBool, bools: vals}
}

func NewTimestampColumn(name string, vals []pgtype.Timestamp) *Column {
	return &Column{name: name, typ: TypeTimestamp, times: vals}
}

func NewTextColumn(name string, vals []pgtype.Text) *Column {
	return &Column{name: name, typ: TypeText, texts: vals}
}

// NewColumn builds a column of the given type from values.
// Values of a different type are stored as missing, except ints in a float
// column which are widened.
func NewColumn(name string, typ ScalarType, vals []Value) *Column {
	c := &Column{name: name, typ: typ}
	c.grow(len(vals))
	for i, v := range vals {
		if typ == TypeFloat && v.Type == TypeInt && v.Valid {
			v = FloatValue(float64(v.Int))
		}
		if v.Type != typ {
			v = Null(typ)
		}
		c.set(i, v)
	}
	return c
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the declared scalar type.
func (c *Column) Type() ScalarType { return c.typ }

// Len returns the number of cells.
func (c *Column) Len() int {
	switch c.typ {
	case TypeInt:
		return len(c.ints)
	case TypeFloat:
		return len(c.floats)
	case TypeBool:
		return len(c.bools)
	case TypeTimestamp:
		return len(c.times)
	default:
		return len(c.texts)
	}
}

// At returns the cell at row i.
func (c *Column) At(i int) Value {
	switch c.typ {
	case TypeInt:
		v := c.ints[i]
		return Value{Type: TypeInt, Valid: v.Valid, Int: v.Int64}
	case TypeFloat:
		v := c.floats[i]
		return Value{Type: TypeFloat, Valid: v.Valid, Float: v.Float64}
	case TypeBool:
		v := c.bools[i]
		return Value{Type: TypeBool, Valid: v.Valid, Bool: v.Bool}
	case TypeTimestamp:
		v := c.times[i]
		return Value{Type: TypeTimestamp, Valid: v.Valid, Time: v.Time}
	default:
		v := c.texts[i]
		return Value{Type: TypeText, Valid: v.Valid, Text: v.String}
	}
}

// Values returns every cell in row order.
func (c *Column) Values() []Value {
	out := make([]Value, c.Len())
	for i := range out {
		out[i] = c.At(i)
	}
	return out
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if !c.At(i).Valid {
			n++
		}
	}
	return n
}

// AllWholeFloats reports whether the column is a float column in which every
// cell is present and has an integral value. Integer-like quantities stored
// as floats satisfy this; an empty float column does too.
func (c *Column) AllWholeFloats() bool {
	if c.typ != TypeFloat {
		return false
	}
	for _, v := range c.floats {
		if !v.Valid || math.IsInf(v.Float64, 0) || v.Float64 != math.Trunc(v.Float64) {
			return false
		}
	}
	return true
}

// Format renders cell i for export. Timestamps use the date-only layout when
// dateOnly is set.
func (c *Column) Format(i int, dateOnly bool) string {
	v := c.At(i)
	if v.Valid && v.Type == TypeTimestamp && dateOnly {
		return v.Time.Format(DateLayout)
	}
	return v.String()
}

// DateOnly reports whether every present timestamp falls on midnight, in
// which case the column renders without a time part.
func (c *Column) DateOnly() bool {
	if c.typ != TypeTimestamp {
		return false
	}
	for _, v := range c.times {
		if !v.Valid {
			continue
		}
		h, m, s := v.Time.Clock()
		if h != 0 || m != 0 || s != 0 || v.Time.Nanosecond() != 0 {
			return false
		}
	}
	return true
}

func (c *Column) clone() *Column {
	return &Column{
		name:   c.name,
		typ:    c.typ,
		ints:   slices.Clone(c.ints),
		floats: slices.Clone(c.floats),
		bools:  slices.Clone(c.bools),
		times:  slices.Clone(c.times),
		texts:  slices.Clone(c.texts),
	}
}

// set stores v at row i. v must already have the column's type.
func (c *Column) set(i int, v Value) {
	switch c.typ {
	case TypeInt:
		c.ints[i] = pgtype.Int8{Int64: v.Int, Valid: v.Valid}
	case TypeFloat:
		c.floats[i] = pgtype.Float8{Float64: v.Float, Valid: v.Valid}
	case TypeBool:
		c.bools[i] = pgtype.Bool{Bool: v.Bool, Valid: v.Valid}
	case TypeTimestamp:
		c.times[i] = pgtype.Timestamp{Time: v.Time, Valid: v.Valid}
	default:
		c.texts[i] = pgtype.Text{String: v.Text, Valid: v.Valid}
	}
}

// grow appends n missing cells.
func (c *Column) grow(n int) {
	switch c.typ {
	case TypeInt:
		c.ints = append(c.ints, make([]pgtype.Int8, n)...)
	case TypeFloat:
		c.floats = append(c.floats, make([]pgtype.Float8, n)...)
	case TypeBool:
		c.bools = append(c.bools, make([]pgtype.Bool, n)...)
	case TypeTimestamp:
		c.times = append(c.times, make([]pgtype.Timestamp, n)...)
	default:
		c.texts = append(c.texts, make([]pgtype.Text, n)...)
	}
}

// pick returns a new column holding the cells where keep is true.
func (c *Column) pick(keep func(i int) bool) *Column {
	out := &Column{name: c.name, typ: c.typ}
	out.ints = pickSlice(c.ints, keep)
	out.floats = pickSlice(c.floats, keep)
	out.bools = pickSlice(c.bools, keep)
	out.times = pickSlice(c.times, keep)
	out.texts = pickSlice(c.texts, keep)
	return out
}

// toFloat returns a float copy of an int column.
func (c *Column) toFloat() *Column {
	floats := make([]pgtype.Float8, len(c.ints))
	for i, v := range c.ints {
		floats[i] = pgtype.Float8{Float64: float64(v.Int64), Valid: v.Valid}
	}
	return NewFloatColumn(c.name, floats)
}

func pickSlice[T any](s []T, keep func(i int) bool) []T {
	if s == nil {
		return nil
	}
	out := make([]T, 0, len(s))
	for i, v := range s {
		if keep(i) {
			out = append(out, v)
		}
	}
	return out
}
