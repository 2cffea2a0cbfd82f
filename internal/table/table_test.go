package table

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(vals ...string) []pgtype.Text {
	out := make([]pgtype.Text, len(vals))
	for i, v := range vals {
		out[i] = ToPgText(v)
	}
	return out
}

func ints(vals ...int64) []pgtype.Int8 {
	out := make([]pgtype.Int8, len(vals))
	for i, v := range vals {
		out[i] = pgtype.Int8{Int64: v, Valid: true}
	}
	return out
}

func floats(vals ...float64) []pgtype.Float8 {
	out := make([]pgtype.Float8, len(vals))
	for i, v := range vals {
		out[i] = pgtype.Float8{Float64: v, Valid: true}
	}
	return out
}

func people(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(
		NewTextColumn("name", text("alice", "bob", "carol")),
		NewIntColumn("age", ints(30, 25, 41)),
		NewFloatColumn("score", floats(1.5, 2, 3)),
	)
	require.NoError(t, err)
	return tbl
}

func TestNew_Validation(t *testing.T) {
	_, err := New(
		NewTextColumn("a", text("x")),
		NewTextColumn("a", text("y")),
	)
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = New(
		NewTextColumn("a", text("x", "y")),
		NewIntColumn("b", ints(1)),
	)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestShape(t *testing.T) {
	rows, cols := people(t).Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)

	rows, cols = Empty().Shape()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}

func TestDropColumns(t *testing.T) {
	tests := []struct {
		name string
		drop []string
		want []string
	}{
		{name: "none", drop: nil, want: []string{"name", "age", "score"}},
		{name: "one", drop: []string{"age"}, want: []string{"name", "score"}},
		{name: "all", drop: []string{"score", "name", "age"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := people(t)
			out, err := tbl.DropColumns(tt.drop...)
			require.NoError(t, err)

			assert.Equal(t, tt.want, out.ColumnNames())
			assert.Equal(t, tbl.Len(), out.Len(), "row count must survive a column drop")
			assert.Equal(t, []string{"name", "age", "score"}, tbl.ColumnNames(), "input must be untouched")
		})
	}
}

func TestDropColumns_Missing(t *testing.T) {
	tbl := people(t)
	_, err := tbl.DropColumns("age", "height")
	require.ErrorIs(t, err, ErrColumnNotFound)
	assert.Contains(t, err.Error(), `"height"`)
	assert.Equal(t, 3, tbl.Width())
}

func TestFilterRows(t *testing.T) {
	tbl := people(t)

	out, err := tbl.FilterRows(Mask{false, true, true})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	for newIdx, oldIdx := range []int{1, 2} {
		got, err := out.Row(newIdx)
		require.NoError(t, err)
		want, err := tbl.Row(oldIdx)
		require.NoError(t, err)
		for j := range want {
			assert.True(t, want[j].Equal(got[j]), "row %d col %d", newIdx, j)
		}
	}

	none, err := tbl.FilterRows(Mask{false, false, false})
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, 3, none.Width())

	_, err = tbl.FilterRows(Mask{true})
	assert.ErrorIs(t, err, ErrMaskLength)
}

func TestUniqueValues(t *testing.T) {
	tbl, err := New(
		NewTextColumn("city", text("Oslo", "", "Oslo", "Bergen")),
		NewColumn("n", TypeFloat, []Value{IntValue(1), FloatValue(1), Null(TypeFloat), FloatValue(2)}),
	)
	require.NoError(t, err)

	cities, err := tbl.UniqueValues("city")
	require.NoError(t, err)
	assert.Equal(t, []string{"Oslo", "Bergen"}, []string{cities[0].Text, cities[1].Text})
	assert.Len(t, cities, 2)

	nums, err := tbl.UniqueValues("n")
	require.NoError(t, err)
	assert.Len(t, nums, 2)

	_, err = tbl.UniqueValues("nope")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := people(t)
	cp := tbl.Clone()

	_, err := cp.SetCell(0, "name", "zed")
	require.NoError(t, err)
	cp.InsertRow()

	assert.Equal(t, "alice", tbl.columns[0].At(0).Text)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 4, cp.Len())
}

func TestHead(t *testing.T) {
	tbl := people(t)
	assert.Equal(t, 2, tbl.Head(2).Len())
	assert.Equal(t, 3, tbl.Head(10).Len())
	assert.Equal(t, 0, tbl.Head(-1).Len())
}

func TestSetCell(t *testing.T) {
	t.Run("int stays int", func(t *testing.T) {
		tbl := people(t)
		v, err := tbl.SetCell(0, "age", "40")
		require.NoError(t, err)
		assert.Equal(t, IntValue(40), v)
		col, _ := tbl.Column("age")
		assert.Equal(t, TypeInt, col.Type())
	})

	t.Run("fraction promotes int column", func(t *testing.T) {
		tbl := people(t)
		_, err := tbl.SetCell(1, "age", "25.5")
		require.NoError(t, err)
		col, _ := tbl.Column("age")
		assert.Equal(t, TypeFloat, col.Type())
		assert.Equal(t, 30.0, col.At(0).Float)
		assert.Equal(t, 25.5, col.At(1).Float)
	})

	t.Run("empty sets missing", func(t *testing.T) {
		tbl := people(t)
		_, err := tbl.SetCell(2, "name", "")
		require.NoError(t, err)
		col, _ := tbl.Column("name")
		assert.False(t, col.At(2).Valid)
	})

	t.Run("invalid number leaves table untouched", func(t *testing.T) {
		tbl := people(t)
		before := tbl.Clone()
		_, err := tbl.SetCell(0, "age", "forty")
		assert.ErrorIs(t, err, ErrInvalidNumber)
		assert.True(t, before.Equal(tbl))
	})

	t.Run("bad row and column", func(t *testing.T) {
		tbl := people(t)
		_, err := tbl.SetCell(3, "age", "1")
		assert.ErrorIs(t, err, ErrRowOutOfRange)
		_, err = tbl.SetCell(0, "height", "1")
		assert.ErrorIs(t, err, ErrColumnNotFound)
	})
}

func TestInsertAndDeleteRows(t *testing.T) {
	tbl := people(t)

	idx := tbl.InsertRow()
	assert.Equal(t, 3, idx)
	assert.Equal(t, 4, tbl.Len())
	row, err := tbl.Row(3)
	require.NoError(t, err)
	for _, v := range row {
		assert.False(t, v.Valid)
	}

	require.NoError(t, tbl.DeleteRows(0, 3, 0))
	assert.Equal(t, 2, tbl.Len())
	col, _ := tbl.Column("name")
	assert.Equal(t, "bob", col.At(0).Text)

	err = tbl.DeleteRows(1, 7)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
	assert.Equal(t, 2, tbl.Len(), "a bad index must not delete anything")
}

func TestValueEqual(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int vs float", IntValue(3), FloatValue(3.0), true},
		{"int vs fraction", IntValue(3), FloatValue(3.5), false},
		{"text exact", TextValue("a"), TextValue("a"), true},
		{"text case", TextValue("a"), TextValue("A"), false},
		{"bool", BoolValue(true), BoolValue(true), true},
		{"time instant", TimeValue(day), TimeValue(day.In(time.FixedZone("x", 3600))), true},
		{"missing", Null(TypeInt), Null(TypeInt), false},
		{"text vs number", TextValue("3"), IntValue(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "40", IntValue(40).String())
	assert.Equal(t, "40.0", FloatValue(40).String())
	assert.Equal(t, "2.5", FloatValue(2.5).String())
	assert.Equal(t, "True", BoolValue(true).String())
	assert.Equal(t, "", Null(TypeText).String())
}

func TestColumnAllWholeFloats(t *testing.T) {
	assert.True(t, NewFloatColumn("a", floats(1, 2, 3)).AllWholeFloats())
	assert.False(t, NewFloatColumn("a", floats(1, 2.5)).AllWholeFloats())
	assert.False(t, NewColumn("a", TypeFloat, []Value{FloatValue(1), Null(TypeFloat)}).AllWholeFloats())
	assert.False(t, NewIntColumn("a", ints(1, 2)).AllWholeFloats())
}

func TestScalarTypeText(t *testing.T) {
	for _, typ := range []ScalarType{TypeText, TypeInt, TypeFloat, TypeBool, TypeTimestamp} {
		b, err := typ.MarshalText()
		require.NoError(t, err)

		var back ScalarType
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, typ, back)
	}

	var bad ScalarType
	assert.Error(t, bad.UnmarshalText([]byte("decimal")))
}
