package table

import "fmt"

// Table is an ordered set of equal-length named columns.
//
// The row count is tracked separately from the columns so a table keeps its
// rows when every column has been dropped.
type Table struct {
	columns []*Column
	rows    int
}

// New builds a table from columns. Column names must be unique and all
// columns must have the same length.
func New(cols ...*Column) (*Table, error) {
	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	return newWithRows(rows, cols)
}

// Empty returns a table with no rows and no columns.
func Empty() *Table {
	return &Table{}
}

func newWithRows(rows int, cols []*Column) (*Table, error) {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		seen[c.name] = true
		if c.Len() != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), rows)
		}
	}
	return &Table{columns: cols, rows: rows}, nil
}

// Shape returns (row count, column count).
func (t *Table) Shape() (rows, cols int) {
	return t.rows, len(t.columns)
}

// Len returns the row count.
func (t *Table) Len() int { return t.rows }

// Width returns the column count.
func (t *Table) Width() int { return len(t.columns) }

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool { return t.rows == 0 || len(t.columns) == 0 }

// Columns returns the columns in order. The slice is a copy; the columns
// themselves are shared and must not be modified by the caller.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Column returns the named column or ErrColumnNotFound.
func (t *Table) Column(name string) (*Column, error) {
	i := t.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return t.columns[i], nil
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) ([]Value, error) {
	if i < 0 || i >= t.rows {
		return nil, fmt.Errorf("%w: %d (table has %d rows)", ErrRowOutOfRange, i, t.rows)
	}
	out := make([]Value, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.At(i)
	}
	return out, nil
}

// Clone returns a deep copy that shares no storage with t.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.clone()
	}
	return &Table{columns: cols, rows: t.rows}
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.rows {
		n = t.rows
	}
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.pick(func(row int) bool { return row < n })
	}
	return &Table{columns: cols, rows: n}
}

// Equal reports whether both tables have the same columns, types and cells.
// Two missing cells of the same type are considered equal here.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for j, c := range t.columns {
		oc := o.columns[j]
		if c.name != oc.name || c.typ != oc.typ {
			return false
		}
		for i := 0; i < t.rows; i++ {
			a, b := c.At(i), oc.At(i)
			if a.Valid != b.Valid || (a.Valid && !a.Equal(b)) {
				return false
			}
		}
	}
	return true
}

func (t *Table) indexOf(name string) int {
	for i, c := range t.columns {
		if c.name == name {
			return i
		}
	}
	return -1
}
