package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/filter"
)

// DeleteColumnsRequest is the body of POST /api/edit/delete-columns.
type DeleteColumnsRequest struct {
	Columns []string `json:"columns"`
}

// UpdateCellRequest is the body of POST /api/edit/cell. A null or empty
// value clears the cell.
type UpdateCellRequest struct {
	Row    int     `json:"row"`
	Column string  `json:"column"`
	Value  *string `json:"value"`
}

// UpdateCellResponse echoes the stored value.
type UpdateCellResponse struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   any    `json:"value"`
	Display string `json:"display"`
}

// DeleteRowsRequest is the body of POST /api/edit/delete-rows.
type DeleteRowsRequest struct {
	Rows []int `json:"rows"`
}

// FilterRequest is the body of POST /api/edit/filter.
type FilterRequest struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// FilterResponse carries the rows to display. When Warning is set nothing
// matched and Table holds the whole working copy.
type FilterResponse struct {
	Filter  filter.Spec       `json:"filter"`
	Applied bool              `json:"applied"`
	Matched int               `json:"matched"`
	Warning *core.UserMessage `json:"warning,omitempty"`
	Table   TableJSON         `json:"table"`
}

// respondShape writes the working copy's shape after a successful edit.
func (s *Server) respondShape(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	working, err := sess.Working()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shapeOf(working))
}

// handleDeleteColumns removes columns from the working copy.
func (s *Server) handleDeleteColumns(w http.ResponseWriter, r *http.Request) {
	var req DeleteColumnsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if len(req.Columns) == 0 {
		s.fail(w, r, fmt.Errorf("%w: no columns given", errBadRequest))
		return
	}

	sess := sessionFrom(r.Context())
	if err := sess.DeleteColumns(r.Context(), req.Columns...); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondShape(w, r, sess)
}

// handleUpdateCell sets one cell of the working copy.
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req UpdateCellRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	text := ""
	if req.Value != nil {
		text = *req.Value
	}

	sess := sessionFrom(r.Context())
	v, err := sess.SetCell(r.Context(), req.Row, req.Column, text)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateCellResponse{
		Row:     req.Row,
		Column:  req.Column,
		Value:   v.Interface(),
		Display: v.String(),
	})
}

// handleInsertRow appends an empty row to the working copy.
func (s *Server) handleInsertRow(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	idx, err := sess.InsertRow(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"row": idx})
}

// handleDeleteRows removes rows from the working copy.
func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	var req DeleteRowsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	if err := sess.DeleteRows(r.Context(), req.Rows...); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondShape(w, r, sess)
}

// handleFilterOptions describes how a column can be filtered.
func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		s.fail(w, r, fmt.Errorf("%w: missing column", errBadRequest))
		return
	}

	opts, err := s.service.FilterOptions(sessionFrom(r.Context()), column)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// handleFilter filters the working copy for display. The working copy is
// not changed.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	res, err := sess.ApplyFilter(r.Context(), req.Column, req.Value)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := FilterResponse{
		Filter:  res.Spec,
		Applied: res.Applied(),
		Matched: res.Matched,
		Table:   toTableJSON(res.Display, parseIntParam(r, "limit", 0)),
	}
	if res.Warning != nil {
		msg := core.MapError(res.Warning)
		resp.Warning = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCommit makes the working copy the canonical table.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if _, _, err := sess.Commit(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := sess.Data()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shapeOf(data))
}
