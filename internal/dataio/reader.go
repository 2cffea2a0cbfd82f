// Package dataio converts between uploaded files and tables.
//
// CSV and XLSX uploads are decoded into records, normalized (BOM removal,
// invalid UTF-8 replacement, header deduplication, short-row padding) and then
// typed column by column: qframe infers int, float, bool and text; text
// columns are further promoted to bool or timestamp when every present value
// allows it. Export writes a table back out as CSV.
package dataio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/DataEditor/internal/table"
)

// Read errors.
var (
	ErrEmptyInput        = errors.New("file is empty")
	ErrMalformedInput    = errors.New("file is malformed")
	ErrUnknownRead       = errors.New("file could not be read")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format is an upload file format, chosen by extension.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat returns the format implied by a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Read parses an uploaded file into a typed table. The format is taken from
// name; r is consumed completely.
func Read(name string, r io.Reader) (*table.Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}
	return buildTable(records)
}

// readCSV decodes CSV records. Rows wider than the header are rejected;
// narrower rows are padded later.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(NewSanitizingReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, classifyCSVError(err)
	}
	if isBlankRecord(header) {
		return nil, ErrEmptyInput
	}

	records := [][]string{header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyCSVError(err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d",
				ErrMalformedInput, line, len(header), len(rec))
		}
		records = append(records, rec)
	}
	return records, nil
}

func classifyCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %v", ErrMalformedInput, pe)
	}
	return fmt.Errorf("%w: %v", ErrUnknownRead, err)
}

// readXLSX returns the rows of the first worksheet. Cells are read as their
// stored values, not their display text: a number formatted "1,234.50" or
// "25%" comes back as 1234.5 or 0.25. Rows wider than the header get
// generated column names.
func readXLSX(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRead, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRead, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnknownRead, sheet, err)
	}
	if err := newCellDecoder(f, sheet).decodeRows(rows); err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnknownRead, sheet, err)
	}

	// Drop leading blank rows; the first non-blank row is the header.
	for len(rows) > 0 && isBlankRecord(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for len(rows[0]) < width {
		rows[0] = append(rows[0], "")
	}
	return rows, nil
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader names empty header cells after their position and makes
// duplicates unique with a numeric suffix: a, a.1, a.2.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[name] {
			base := name
			for n := 1; seen[name]; n++ {
				name = fmt.Sprintf("%s.%d", base, n)
			}
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// padRecords extends every data row to width with empty fields.
func padRecords(rows [][]string, width int) {
	for i, row := range rows {
		if len(row) < width {
			rows[i] = append(row, make([]string, width-len(row))...)
		}
	}
}

// encodeRecords writes records back out as canonical CSV.
func encodeRecords(records [][]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRead, err)
	}
	return &buf, nil
}
