package table

import "fmt"

// SetCell parses text into the type of the named column and stores it at
// row. Empty text stores a missing value. Entering a fractional number into
// an int column converts that column to float.
//
// Nothing is modified when an error is returned.
func (t *Table) SetCell(row int, column, text string) (Value, error) {
	idx := t.indexOf(column)
	if idx < 0 {
		return Value{}, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	if row < 0 || row >= t.rows {
		return Value{}, fmt.Errorf("%w: %d (table has %d rows)", ErrRowOutOfRange, row, t.rows)
	}

	c := t.columns[idx]
	v, err := ParseCell(text, c.typ)
	if err != nil {
		return Value{}, fmt.Errorf("column %q row %d: %w", column, row, err)
	}

	if c.typ == TypeInt && v.Type == TypeFloat {
		c = c.toFloat()
		t.columns[idx] = c
	}
	c.set(row, v)
	return v, nil
}

// InsertRow appends a row of missing values and returns its index.
func (t *Table) InsertRow() int {
	for _, c := range t.columns {
		c.grow(1)
	}
	t.rows++
	return t.rows - 1
}

// DeleteRows removes the given rows; the remaining rows are renumbered from
// zero. Every index is checked before any row is removed.
func (t *Table) DeleteRows(rows ...int) error {
	drop := make(map[int]bool, len(rows))
	for _, r := range rows {
		if r < 0 || r >= t.rows {
			return fmt.Errorf("%w: %d (table has %d rows)", ErrRowOutOfRange, r, t.rows)
		}
		drop[r] = true
	}
	if len(drop) == 0 {
		return nil
	}

	keep := func(i int) bool { return !drop[i] }
	for i, c := range t.columns {
		t.columns[i] = c.pick(keep)
	}
	t.rows -= len(drop)
	return nil
}
