// Package filter narrows a table to the rows whose value in one column equals
// a user-entered value.
//
// Filter input arrives as free text. Before comparing, the text is coerced to
// the column's native type: comparing "3" to a numeric column as a string
// would silently match nothing. Equality is then evaluated per row to build a
// [table.Mask].
//
// A filter that matches no rows is not adopted. [Apply] returns the input
// table unchanged together with [ErrEmptyFilterResult] as a warning.
package filter

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/DataEditor/internal/table"
)

// Coercion errors, shared with grid edits.
var (
	ErrInvalidNumber    = table.ErrInvalidNumber
	ErrInvalidTimestamp = table.ErrInvalidTimestamp
	ErrInvalidBoolean   = table.ErrInvalidBoolean
)

// ErrEmptyFilterResult signals that a filter matched no rows. It is a
// warning, not a failure: the unfiltered table is shown instead.
var ErrEmptyFilterResult = errors.New("filter matched no rows")

// Spec describes a single equality filter.
type Spec struct {
	Column string           `json:"column"`
	Value  string           `json:"value"`
	Type   table.ScalarType `json:"type"`
}

// Result is the outcome of applying a filter.
type Result struct {
	Spec    Spec         // Filter as applied, with the column type at the time
	Target  table.Value  // Coerced comparison value
	Display *table.Table // Rows to show; the input table when Warning is set
	Matched int          // Number of rows that matched
	Warning error        // ErrEmptyFilterResult when nothing matched
}

// Applied reports whether the display is the narrowed table.
func (r Result) Applied() bool {
	return r.Warning == nil
}

// Coerce converts text to a value comparable with cells of col.
//
//   - numeric: a float column whose cells are all present whole numbers takes
//     a float; otherwise text is read as int or float as it implies
//   - timestamp: best-effort calendar parsing
//   - bool: true/t/yes/y/1 or false/f/no/n/0, case-insensitive
//   - anything else: the text as-is
func Coerce(text string, col *table.Column) (table.Value, error) {
	switch typ := col.Type(); {
	case typ.IsNumeric():
		if col.AllWholeFloats() {
			f, err := table.ParseFloat(text)
			if err != nil {
				return table.Value{}, err
			}
			return table.FloatValue(f), nil
		}
		return table.ParseNumber(text)

	case typ == table.TypeTimestamp:
		t, err := table.ParseTimestamp(text)
		if err != nil {
			return table.Value{}, err
		}
		return table.TimeValue(t), nil

	case typ == table.TypeBool:
		b, err := table.ParseBool(text)
		if err != nil {
			return table.Value{}, err
		}
		return table.BoolValue(b), nil

	default:
		return table.TextValue(text), nil
	}
}

// BuildMask marks the rows whose cell in column equals target.
// Missing cells never match.
func BuildMask(t *table.Table, column string, target table.Value) (table.Mask, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	mask := make(table.Mask, col.Len())
	for i := range mask {
		mask[i] = col.At(i).Equal(target)
	}
	return mask, nil
}

// Apply coerces text for column, builds the mask and filters t.
//
// Coercion and lookup failures return an error and no result. When no row
// matches, the result displays t itself and carries ErrEmptyFilterResult.
// t is never modified.
func Apply(t *table.Table, column, text string) (Result, error) {
	col, err := t.Column(column)
	if err != nil {
		return Result{}, err
	}

	spec := Spec{Column: column, Value: text, Type: col.Type()}
	target, err := Coerce(text, col)
	if err != nil {
		return Result{}, fmt.Errorf("filter %q on column %q: %w", text, column, err)
	}

	mask, err := BuildMask(t, column, target)
	if err != nil {
		return Result{}, err
	}

	res := Result{Spec: spec, Target: target, Matched: mask.Count()}
	if res.Matched == 0 {
		res.Display = t
		res.Warning = ErrEmptyFilterResult
		return res, nil
	}

	res.Display, err = t.FilterRows(mask)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
