package dataio

import (
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tobgu/qframe"
	qfcsv "github.com/tobgu/qframe/config/csv"
	"github.com/tobgu/qframe/types"

	"github.com/JonMunkholm/DataEditor/internal/table"
)

// buildTable turns raw records (header first) into a typed table.
func buildTable(records [][]string) (*table.Table, error) {
	header := normalizeHeader(records[0])
	rows := records[1:]
	padRecords(rows, len(header))
	trimNumericColumns(rows, len(header))

	if len(rows) == 0 {
		cols := make([]*table.Column, len(header))
		for i, name := range header {
			cols[i] = table.NewTextColumn(name, nil)
		}
		return table.New(cols...)
	}

	buf, err := encodeRecords(append([][]string{header}, rows...))
	if err != nil {
		return nil, err
	}
	qf := qframe.ReadCSV(buf, qfcsv.EmptyNull(true))
	if qf.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRead, qf.Err)
	}

	names := qf.ColumnNames()
	kinds := qf.ColumnTypes()
	cols := make([]*table.Column, len(names))
	for i, name := range names {
		col, err := frameColumn(qf, name, kinds[i], rows, i)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrUnknownRead, name, err)
		}
		cols[i] = col
	}
	return table.New(cols...)
}

// trimNumericColumns strips surrounding whitespace from every field of a
// column whose non-empty fields all parse as numbers, so " 1" is inferred
// as an int the same way a filter or grid edit reads it. Other columns keep
// their text untouched.
func trimNumericColumns(rows [][]string, width int) {
	for j := 0; j < width; j++ {
		numeric, padded := true, false
		for _, row := range rows {
			f := row[j]
			if f == "" {
				continue
			}
			if _, err := table.ParseNumber(f); err != nil {
				numeric = false
				break
			}
			padded = padded || strings.TrimSpace(f) != f
		}
		if !numeric || !padded {
			continue
		}
		for _, row := range rows {
			row[j] = strings.TrimSpace(row[j])
		}
	}
}

// frameColumn converts one inferred qframe column. rows and idx give access
// to the raw fields for columns qframe leaves untyped.
func frameColumn(qf qframe.QFrame, name string, kind types.DataType, rows [][]string, idx int) (*table.Column, error) {
	switch kind {
	case types.Int:
		view, err := qf.IntView(name)
		if err != nil {
			return nil, err
		}
		vals := make([]pgtype.Int8, view.Len())
		for i := range vals {
			vals[i] = pgtype.Int8{Int64: int64(view.ItemAt(i)), Valid: true}
		}
		return table.NewIntColumn(name, vals), nil

	case types.Float:
		view, err := qf.FloatView(name)
		if err != nil {
			return nil, err
		}
		vals := make([]pgtype.Float8, view.Len())
		for i := range vals {
			f := view.ItemAt(i)
			vals[i] = pgtype.Float8{Float64: f, Valid: !math.IsNaN(f)}
		}
		return table.NewFloatColumn(name, vals), nil

	case types.Bool:
		view, err := qf.BoolView(name)
		if err != nil {
			return nil, err
		}
		vals := make([]pgtype.Bool, view.Len())
		for i := range vals {
			vals[i] = pgtype.Bool{Bool: view.ItemAt(i), Valid: true}
		}
		return table.NewBoolColumn(name, vals), nil

	case types.String:
		view, err := qf.StringView(name)
		if err != nil {
			return nil, err
		}
		vals := make([]*string, view.Len())
		for i := range vals {
			vals[i] = view.ItemAt(i)
		}
		return promoteText(name, vals), nil

	case types.Enum:
		view, err := qf.EnumView(name)
		if err != nil {
			return nil, err
		}
		vals := make([]*string, view.Len())
		for i := range vals {
			vals[i] = view.ItemAt(i)
		}
		return promoteText(name, vals), nil

	default:
		vals := make([]*string, len(rows))
		for i, row := range rows {
			if row[idx] != "" {
				s := row[idx]
				vals[i] = &s
			}
		}
		return promoteText(name, vals), nil
	}
}

// promoteText builds a text column, or a bool or timestamp column when every
// present value is a true/false literal or a parseable timestamp.
func promoteText(name string, vals []*string) *table.Column {
	present := 0
	allBool, allTime := true, true
	for _, v := range vals {
		if v == nil {
			continue
		}
		present++
		if allBool && !strings.EqualFold(*v, "true") && !strings.EqualFold(*v, "false") {
			allBool = false
		}
		if allTime && !table.ToPgTimestamp(*v).Valid {
			allTime = false
		}
	}

	switch {
	case present > 0 && allBool:
		out := make([]pgtype.Bool, len(vals))
		for i, v := range vals {
			if v != nil {
				out[i] = pgtype.Bool{Bool: strings.EqualFold(*v, "true"), Valid: true}
			}
		}
		return table.NewBoolColumn(name, out)

	case present > 0 && allTime:
		out := make([]pgtype.Timestamp, len(vals))
		for i, v := range vals {
			if v != nil {
				out[i] = table.ToPgTimestamp(*v)
			}
		}
		return table.NewTimestampColumn(name, out)

	default:
		out := make([]pgtype.Text, len(vals))
		for i, v := range vals {
			if v != nil {
				out[i] = pgtype.Text{String: *v, Valid: true}
			}
		}
		return table.NewTextColumn(name, out)
	}
}
