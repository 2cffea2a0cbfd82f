package filter

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/DataEditor/internal/dataio"
	"github.com/JonMunkholm/DataEditor/internal/table"
)

func sample(t *testing.T) *table.Table {
	t.Helper()
	day := func(d int) pgtype.Timestamp {
		return pgtype.Timestamp{Time: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC), Valid: true}
	}
	tbl, err := table.New(
		table.NewTextColumn("name", []pgtype.Text{
			table.ToPgText("alice"), table.ToPgText("bob"), table.ToPgText("carol"),
			table.ToPgText("dave"), table.ToPgText("erin"),
		}),
		table.NewIntColumn("n", []pgtype.Int8{
			{Int64: 1, Valid: true}, {Int64: 2, Valid: true}, {Int64: 3, Valid: true},
			{Int64: 3, Valid: true}, {},
		}),
		table.NewFloatColumn("qty", []pgtype.Float8{
			{Float64: 3, Valid: true}, {Float64: 4, Valid: true}, {Float64: 3, Valid: true},
			{Float64: 5, Valid: true}, {Float64: 6, Valid: true},
		}),
		table.NewBoolColumn("active", []pgtype.Bool{
			{Bool: true, Valid: true}, {Bool: false, Valid: true}, {Bool: true, Valid: true},
			{}, {Bool: false, Valid: true},
		}),
		table.NewTimestampColumn("joined", []pgtype.Timestamp{
			day(15), day(16), day(15), day(17), {},
		}),
	)
	require.NoError(t, err)
	return tbl
}

func TestCoerce(t *testing.T) {
	tbl := sample(t)
	col := func(name string) *table.Column {
		c, err := tbl.Column(name)
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name    string
		column  string
		text    string
		want    table.Value
		wantErr error
	}{
		{name: "int text to int", column: "n", text: "3", want: table.IntValue(3)},
		{name: "fraction in int column", column: "n", text: "2.5", want: table.FloatValue(2.5)},
		{name: "whole floats take float", column: "qty", text: "3", want: table.FloatValue(3)},
		{name: "bad number", column: "n", text: "three", wantErr: ErrInvalidNumber},
		{name: "bool yes", column: "active", text: "Yes", want: table.BoolValue(true)},
		{name: "bool zero", column: "active", text: "0", want: table.BoolValue(false)},
		{name: "bool maybe", column: "active", text: "maybe", wantErr: ErrInvalidBoolean},
		{name: "bool padded", column: "active", text: " yes", wantErr: ErrInvalidBoolean},
		{name: "number padded", column: "n", text: " 3 ", want: table.IntValue(3)},
		{name: "timestamp", column: "joined", text: "01/15/2024",
			want: table.TimeValue(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))},
		{name: "bad timestamp", column: "joined", text: "soon", wantErr: ErrInvalidTimestamp},
		{name: "text verbatim", column: "name", text: " Bob ", want: table.TextValue(" Bob ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.text, col(tt.column))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.True(t, tt.want.Equal(got), "Coerce(%q) = %#v, want %#v", tt.text, got, tt.want)
		})
	}
}

func TestBuildMask(t *testing.T) {
	tbl := sample(t)

	mask, err := BuildMask(tbl, "n", table.IntValue(3))
	require.NoError(t, err)
	assert.Equal(t, table.Mask{false, false, true, true, false}, mask)

	mask, err = BuildMask(tbl, "n", table.FloatValue(3.0))
	require.NoError(t, err)
	assert.Equal(t, 2, mask.Count(), "3 and 3.0 are the same number")

	mask, err = BuildMask(tbl, "active", table.BoolValue(false))
	require.NoError(t, err)
	assert.Equal(t, table.Mask{false, true, false, false, true}, mask, "missing never matches")

	_, err = BuildMask(tbl, "missing", table.IntValue(1))
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestApply(t *testing.T) {
	tbl := sample(t)

	res, err := Apply(tbl, "qty", "3")
	require.NoError(t, err)
	assert.True(t, res.Applied())
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 2, res.Display.Len())
	assert.Equal(t, table.TypeFloat, res.Spec.Type)
	names, _ := res.Display.Column("name")
	assert.Equal(t, "alice", names.At(0).Text)
	assert.Equal(t, "carol", names.At(1).Text)

	res, err = Apply(tbl, "joined", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Display.Len())

	assert.Equal(t, 5, tbl.Len(), "input must be untouched")
}

func TestApply_EmptyResultKeepsDisplay(t *testing.T) {
	tbl := sample(t)

	res, err := Apply(tbl, "name", "zoe")
	require.NoError(t, err)
	assert.ErrorIs(t, res.Warning, ErrEmptyFilterResult)
	assert.False(t, res.Applied())
	assert.Zero(t, res.Matched)
	assert.Same(t, tbl, res.Display)
	assert.Equal(t, 5, res.Display.Len())
}

func TestApply_Errors(t *testing.T) {
	tbl := sample(t)

	_, err := Apply(tbl, "active", "maybe")
	assert.ErrorIs(t, err, ErrInvalidBoolean)

	_, err = Apply(tbl, "n", "lots")
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, err = Apply(tbl, "height", "1")
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestOptionsFor(t *testing.T) {
	tbl := sample(t)

	opts, err := OptionsFor(tbl, "n", DefaultDistinctLimit)
	require.NoError(t, err)
	assert.Equal(t, ModeSelect, opts.Mode)
	assert.Equal(t, []string{"1", "2", "3"}, opts.Values)

	opts, err = OptionsFor(tbl, "joined", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-15", "2024-01-16", "2024-01-17"}, opts.Values)

	opts, err = OptionsFor(tbl, "name", 3)
	require.NoError(t, err)
	assert.Equal(t, ModeText, opts.Mode)
	assert.Empty(t, opts.Values)

	blank, err := table.New(table.NewTextColumn("x", []pgtype.Text{{}, {}}))
	require.NoError(t, err)
	opts, err = OptionsFor(blank, "x", 10)
	require.NoError(t, err)
	assert.Equal(t, ModeNone, opts.Mode)

	_, err = OptionsFor(tbl, "nope", 10)
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestOptionsFor_LimitBoundary(t *testing.T) {
	vals := make([]pgtype.Int8, 50)
	for i := range vals {
		vals[i] = pgtype.Int8{Int64: int64(i), Valid: true}
	}
	tbl, err := table.New(table.NewIntColumn("id", vals))
	require.NoError(t, err)

	for _, tc := range []struct {
		limit int
		want  Mode
	}{{50, ModeText}, {51, ModeSelect}} {
		t.Run(fmt.Sprint(tc.limit), func(t *testing.T) {
			opts, err := OptionsFor(tbl, "id", tc.limit)
			require.NoError(t, err)
			assert.Equal(t, tc.want, opts.Mode)
		})
	}
}

func TestOptionsFor_ValuesSelectRows(t *testing.T) {
	tbl, err := dataio.Read("events.csv", strings.NewReader(strings.Join([]string{
		"id,ts,score,ok,label",
		"1,2024-01-15T10:00:00+02:00,0.1,true,a",
		"2,2024-01-15 10:00:00.500,2.5,false, b",
		"3,2024-01-16 09:30:00,1e20,true,a",
		"4,2024-01-15 08:00:00,,,",
	}, "\n")))
	require.NoError(t, err)

	for _, name := range tbl.ColumnNames() {
		t.Run(name, func(t *testing.T) {
			opts, err := OptionsFor(tbl, name, DefaultDistinctLimit)
			require.NoError(t, err)
			require.Equal(t, ModeSelect, opts.Mode)

			seen := make(map[string]bool)
			for _, v := range opts.Values {
				assert.False(t, seen[v], "duplicate option %q", v)
				seen[v] = true

				res, err := Apply(tbl, name, v)
				require.NoError(t, err, "option %q", v)
				assert.Positive(t, res.Matched, "option %q matched no rows", v)
			}
		})
	}

	opts, err := OptionsFor(tbl, "ts", DefaultDistinctLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2024-01-15 08:00:00",
		"2024-01-15 10:00:00.5",
		"2024-01-16 09:30:00",
	}, opts.Values)

	res, err := Apply(tbl, "ts", "2024-01-15 08:00:00")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matched, "the +02:00 row and the UTC row are the same instant")
}
