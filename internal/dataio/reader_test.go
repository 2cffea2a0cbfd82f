package dataio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/DataEditor/internal/table"
)

func readString(t *testing.T, name, content string) (*table.Table, error) {
	t.Helper()
	return Read(name, strings.NewReader(content))
}

func column(t *testing.T, tbl *table.Table, name string) *table.Column {
	t.Helper()
	col, err := tbl.Column(name)
	require.NoError(t, err)
	return col
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", FormatCSV, false},
		{"DATA.CSV", FormatCSV, false},
		{"book.xlsx", FormatXLSX, false},
		{"notes.txt", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRead_InfersTypes(t *testing.T) {
	tbl, err := readString(t, "people.csv", "name,age,score\nalice,30,1.5\nbob,25,2\n")
	require.NoError(t, err)

	rows, cols := tbl.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"name", "age", "score"}, tbl.ColumnNames())

	assert.Equal(t, table.TypeText, column(t, tbl, "name").Type())
	assert.Equal(t, table.TypeInt, column(t, tbl, "age").Type())
	assert.Equal(t, table.TypeFloat, column(t, tbl, "score").Type())
	assert.Equal(t, int64(25), column(t, tbl, "age").At(1).Int)
}

func TestRead_MissingNumbers(t *testing.T) {
	tbl, err := readString(t, "n.csv", "id,n\na,1\nb,\nc,3\n")
	require.NoError(t, err)

	n := column(t, tbl, "n")
	assert.True(t, n.Type().IsNumeric())
	assert.False(t, n.At(1).Valid)
	assert.Equal(t, 3.0, n.At(2).Number())
}

func TestRead_PromotesBoolAndTimestamp(t *testing.T) {
	tbl, err := readString(t, "t.csv", "flag,joined,x\nTRUE,2024-01-15,1\nfalse,2024-02-01,2\n,2024-03-09,3\n")
	require.NoError(t, err)

	flag := column(t, tbl, "flag")
	require.Equal(t, table.TypeBool, flag.Type())
	assert.True(t, flag.At(0).Bool)
	assert.False(t, flag.At(1).Bool)
	assert.False(t, flag.At(2).Valid)

	joined := column(t, tbl, "joined")
	require.Equal(t, table.TypeTimestamp, joined.Type())
	assert.True(t, joined.At(0).Time.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, joined.DateOnly())
}

func TestRead_Normalization(t *testing.T) {
	t.Run("duplicate headers", func(t *testing.T) {
		tbl, err := readString(t, "d.csv", "a,a,b,a\n1,2,3,4\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a.1", "b", "a.2"}, tbl.ColumnNames())
	})

	t.Run("blank header", func(t *testing.T) {
		tbl, err := readString(t, "d.csv", "a,\n1,2\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "Unnamed: 1"}, tbl.ColumnNames())
	})

	t.Run("short rows padded", func(t *testing.T) {
		tbl, err := readString(t, "d.csv", "a,b\nx,1\ny\n")
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Len())
		assert.False(t, column(t, tbl, "b").At(1).Valid)
	})

	t.Run("byte order mark", func(t *testing.T) {
		tbl, err := readString(t, "d.csv", "\xEF\xBB\xBFname,age\nalice,30\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "age"}, tbl.ColumnNames())
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		tbl, err := readString(t, "d.csv", "name\nbad\x80byte\n")
		require.NoError(t, err)
		assert.Equal(t, "bad?byte", column(t, tbl, "name").At(0).Text)
	})

	t.Run("header only", func(t *testing.T) {
		tbl, err := readString(t, "d.csv", "a,b\n")
		require.NoError(t, err)
		rows, cols := tbl.Shape()
		assert.Zero(t, rows)
		assert.Equal(t, 2, cols)
	})
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"empty", "e.csv", "", ErrEmptyInput},
		{"whitespace", "e.csv", "  \n", ErrEmptyInput},
		{"too many fields", "m.csv", "a,b\n1,2,3\n", ErrMalformedInput},
		{"bare quote", "m.csv", "a,b\nx\"y,1\n", ErrMalformedInput},
		{"unterminated quote", "m.csv", "a,b\n\"x,1\n", ErrMalformedInput},
		{"unsupported", "m.json", "{}", ErrUnsupportedFormat},
		{"empty xlsx", "e.xlsx", "", ErrEmptyInput},
		{"corrupt xlsx", "c.xlsx", "definitely not a zip", ErrUnknownRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := readString(t, tt.file, tt.content)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, tbl)
		})
	}
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]any{
		{"name", "age", "active"},
		{"alice", 30, "true"},
		{"bob", 25, "false"},
	}
	for r, row := range cells {
		for c, v := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := Read("book.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "active"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.TypeInt, column(t, tbl, "age").Type())
	assert.Equal(t, table.TypeBool, column(t, tbl, "active").Type())
}

func TestRead_XLSXStoredValues(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	style := func(s *excelize.Style) int {
		id, err := f.NewStyle(s)
		require.NoError(t, err)
		return id
	}
	timeCode := "yyyy-mm-dd hh:mm:ss"
	amount := style(&excelize.Style{NumFmt: 4})  // #,##0.00
	percent := style(&excelize.Style{NumFmt: 10}) // 0.00%
	day := style(&excelize.Style{NumFmt: 14})
	stamp := style(&excelize.Style{CustomNumFmt: &timeCode})

	set := func(ref string, v any, styleID int) {
		require.NoError(t, f.SetCellValue(sheet, ref, v))
		if styleID != 0 {
			require.NoError(t, f.SetCellStyle(sheet, ref, ref, styleID))
		}
	}
	for i, h := range []string{"amount", "pct", "day", "at", "flag"} {
		ref, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		set(ref, h, 0)
	}
	set("A2", 1234.5, amount)
	set("A3", 99, amount)
	set("B2", 0.25, percent)
	set("B3", 0.5, percent)
	set("C2", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), day)
	set("C3", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), day)
	set("D2", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), stamp)
	set("D3", time.Date(2024, 1, 16, 8, 0, 15, 0, time.UTC), stamp)
	set("E2", true, 0)
	set("E3", false, 0)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := Read("styled.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	amt := column(t, tbl, "amount")
	require.Equal(t, table.TypeFloat, amt.Type())
	assert.Equal(t, 1234.5, amt.At(0).Float)
	assert.Equal(t, 99.0, amt.At(1).Float)

	pct := column(t, tbl, "pct")
	require.Equal(t, table.TypeFloat, pct.Type())
	assert.Equal(t, 0.25, pct.At(0).Float)

	days := column(t, tbl, "day")
	require.Equal(t, table.TypeTimestamp, days.Type())
	assert.True(t, days.At(0).Time.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, days.DateOnly())

	at := column(t, tbl, "at")
	require.Equal(t, table.TypeTimestamp, at.Type())
	assert.True(t, at.At(1).Time.Equal(time.Date(2024, 1, 16, 8, 0, 15, 0, time.UTC)))

	flag := column(t, tbl, "flag")
	require.Equal(t, table.TypeBool, flag.Type())
	assert.True(t, flag.At(0).Bool)
	assert.False(t, flag.At(1).Bool)
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"d-mmm-yy", true},
		{"hh:mm:ss AM/PM", true},
		{"[h]:mm", true},
		{"#,##0.00", false},
		{"0.00%", false},
		{"General", false},
		{`"Day "0`, false},
		{`[$$-409]#,##0.00;[Red]-#,##0.00`, false},
		{`0\d`, false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestRead_WhitespacePolicy(t *testing.T) {
	tbl, err := readString(t, "ws.csv", "n,label,flag\n 1 ,a ,true\n2, b,false\n")
	require.NoError(t, err)

	n := column(t, tbl, "n")
	require.Equal(t, table.TypeInt, n.Type(), "padded numbers are numbers")
	assert.Equal(t, int64(1), n.At(0).Int)

	label := column(t, tbl, "label")
	require.Equal(t, table.TypeText, label.Type())
	assert.Equal(t, "a ", label.At(0).Text, "text keeps its spacing")
	assert.Equal(t, " b", label.At(1).Text)
}

func TestRead_TimestampsKeepInstant(t *testing.T) {
	tbl, err := readString(t, "ts.csv", "id,ts\n1,2024-01-15 10:00:00.500\n2,2024-01-15T10:00:00+02:00\n")
	require.NoError(t, err)

	ts := column(t, tbl, "ts")
	require.Equal(t, table.TypeTimestamp, ts.Type())
	assert.True(t, ts.At(0).Time.Equal(time.Date(2024, 1, 15, 10, 0, 0, 500e6, time.UTC)))
	assert.True(t, ts.At(1).Time.Equal(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)))
}
