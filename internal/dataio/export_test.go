package dataio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/DataEditor/internal/table"
)

func TestWriteCSV(t *testing.T) {
	midnight := func(d int) pgtype.Timestamp {
		return pgtype.Timestamp{Time: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC), Valid: true}
	}
	tbl, err := table.New(
		table.NewTextColumn("name", []pgtype.Text{table.ToPgText("alice"), table.ToPgText("b, c")}),
		table.NewIntColumn("age", []pgtype.Int8{{Int64: 40, Valid: true}, {}}),
		table.NewFloatColumn("score", []pgtype.Float8{{Float64: 40, Valid: true}, {Float64: 2.5, Valid: true}}),
		table.NewBoolColumn("ok", []pgtype.Bool{{Bool: true, Valid: true}, {Bool: false, Valid: true}}),
		table.NewTimestampColumn("day", []pgtype.Timestamp{midnight(15), {}}),
		table.NewTimestampColumn("at", []pgtype.Timestamp{
			midnight(15),
			{Time: time.Date(2024, 1, 16, 9, 30, 0, 0, time.UTC), Valid: true},
		}),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))

	want := strings.Join([]string{
		"name,age,score,ok,day,at",
		"alice,40,40.0,True,2024-01-15,2024-01-15 00:00:00",
		`"b, c",,2.5,False,,2024-01-16 09:30:00`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table.Empty()))
	assert.Equal(t, "\n", buf.String())
}

func TestReadEditWrite(t *testing.T) {
	tbl, err := Read("people.csv", strings.NewReader("name,age\nalice,30\nbob,25\n"))
	require.NoError(t, err)

	_, err = tbl.SetCell(0, "age", "40")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "name,age\nalice,40\nbob,25\n", buf.String())
}

func TestWriteCSV_TimestampPrecision(t *testing.T) {
	tbl, err := Read("ts.csv", strings.NewReader(
		"id,ts\n1,2024-01-15 10:00:00.500\n2,2024-01-15T10:00:00+02:00\n3,2024-01-15 10:00:00.000001\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, strings.Join([]string{
		"id,ts",
		"1,2024-01-15 10:00:00.5",
		"2,2024-01-15 08:00:00",
		"3,2024-01-15 10:00:00.000001",
		"",
	}, "\n"), buf.String())

	again, err := Read("again.csv", &buf)
	require.NoError(t, err)
	assert.True(t, again.Equal(tbl), "exported timestamps read back to the same instants")
}
