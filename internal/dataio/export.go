package dataio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/DataEditor/internal/table"
)

// Download metadata for exported tables.
const (
	ExportFileName    = "edited_data.csv"
	ExportContentType = "text/csv"
)

// WriteCSV encodes t as UTF-8 CSV with a header row. Floats keep a decimal
// point, booleans render True/False, missing cells are empty, and timestamp
// columns drop the time part when every value is at midnight.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	cols := t.Columns()
	dateOnly := make([]bool, len(cols))
	for j, c := range cols {
		dateOnly[j] = c.DateOnly()
	}

	record := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			record[j] = c.Format(i, dateOnly[j])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
