package table

import (
	"fmt"
	"strings"
)

// Mask selects rows: one entry per row, true to keep.
type Mask []bool

// Count returns the number of selected rows.
func (m Mask) Count() int {
	n := 0
	for _, keep := range m {
		if keep {
			n++
		}
	}
	return n
}

// DropColumns returns a new table without the named columns.
// Fails with ErrColumnNotFound if any name is absent; t is never modified.
func (t *Table) DropColumns(names ...string) (*Table, error) {
	drop := make(map[string]bool, len(names))
	var missing []string
	for _, name := range names {
		if t.indexOf(name) < 0 {
			missing = append(missing, fmt.Sprintf("%q", name))
			continue
		}
		drop[name] = true
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, strings.Join(missing, ", "))
	}

	cols := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c.name] {
			cols = append(cols, c.clone())
		}
	}
	return &Table{columns: cols, rows: t.rows}, nil
}

// FilterRows returns a new table with the rows where mask is true, renumbered
// from zero. The mask must have one entry per row.
//
// A mask selecting nothing yields a zero-row table; whether to adopt it is
// the caller's decision.
func (t *Table) FilterRows(mask Mask) (*Table, error) {
	if len(mask) != t.rows {
		return nil, fmt.Errorf("%w: mask has %d entries, table has %d rows", ErrMaskLength, len(mask), t.rows)
	}
	keep := func(i int) bool { return mask[i] }
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.pick(keep)
	}
	return &Table{columns: cols, rows: mask.Count()}, nil
}

// UniqueValues returns the distinct present values of a column in
// first-seen order.
func (t *Table) UniqueValues(name string) ([]Value, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	var out []Value
	seen := make(map[string]bool)
	for i := 0; i < c.Len(); i++ {
		v := c.At(i)
		if !v.Valid {
			continue
		}
		k := v.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out, nil
}
