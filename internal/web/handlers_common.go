package web

// Shared request parsing and response shaping used across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/table"
)

// maxJSONBody bounds API request bodies other than uploads.
const maxJSONBody = 1 << 20

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseRowParams converts form values to row indices.
func parseRowParams(values []string) ([]int, error) {
	rows := make([]int, 0, len(values))
	for _, v := range values {
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: row %q is not an integer", errBadRequest, v)
		}
		rows = append(rows, i)
	}
	return rows, nil
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// ColumnJSON describes one column of a table response.
type ColumnJSON struct {
	Name      string           `json:"name"`
	Type      table.ScalarType `json:"type"`
	NullCount int              `json:"null_count"`
}

// TableJSON is the wire form of a table: column schema plus row-major cells.
// Cells are null, numbers, booleans or strings (timestamps in RFC 3339).
type TableJSON struct {
	Rows      int          `json:"rows"`
	Columns   int          `json:"columns"`
	Schema    []ColumnJSON `json:"schema"`
	Data      [][]any      `json:"data"`
	Truncated bool         `json:"truncated,omitempty"`
}

// toTableJSON converts t, including at most limit rows when limit > 0.
func toTableJSON(t *table.Table, limit int) TableJSON {
	rows, cols := t.Shape()
	out := TableJSON{
		Rows:    rows,
		Columns: cols,
		Schema:  make([]ColumnJSON, cols),
	}

	columns := t.Columns()
	for i, c := range columns {
		out.Schema[i] = ColumnJSON{Name: c.Name(), Type: c.Type(), NullCount: c.NullCount()}
	}

	n := rows
	if limit > 0 && limit < rows {
		n = limit
		out.Truncated = true
	}
	out.Data = make([][]any, n)
	for r := 0; r < n; r++ {
		row := make([]any, cols)
		for i, c := range columns {
			row[i] = c.At(r).Interface()
		}
		out.Data[r] = row
	}
	return out
}

// ShapeResponse reports a table's dimensions after an edit.
type ShapeResponse struct {
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Names   []string `json:"column_names"`
}

func shapeOf(t *table.Table) ShapeResponse {
	rows, cols := t.Shape()
	return ShapeResponse{Rows: rows, Columns: cols, Names: t.ColumnNames()}
}

// UploadResultResponse wraps the upload result for JSON encoding.
type UploadResultResponse struct {
	*core.UploadResult
	Preview TableJSON `json:"preview"`
}

func toUploadResponse(res *core.UploadResult) UploadResultResponse {
	return UploadResultResponse{
		UploadResult: res,
		Preview:      toTableJSON(res.Preview, 0),
	}
}

// handleUploadQueueStatus returns the current state of the upload limiter.
// Used for monitoring and to check if the system can accept more uploads.
func (s *Server) handleUploadQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.UploadStatus())
}
