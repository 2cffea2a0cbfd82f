package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/dataio"
	"github.com/JonMunkholm/DataEditor/internal/logging"
	"github.com/JonMunkholm/DataEditor/internal/table"
	"github.com/JonMunkholm/DataEditor/internal/web/templates"
)

// handleTable returns a table as JSON.
//
// Query parameters:
//   - source: "working" or "data"; defaults to the working copy while
//     editing and the canonical table otherwise
//   - limit: maximum number of rows to include
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "data"
		if sess.Page() == core.PageEdit {
			source = "working"
		}
	}

	var (
		t   *table.Table
		err error
	)
	switch source {
	case "working":
		t, err = sess.Working()
	case "data":
		t, err = sess.Data()
	default:
		err = fmt.Errorf("%w: unknown source %q", errBadRequest, source)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTableJSON(t, parseIntParam(r, "limit", 0)))
}

// exportCSV renders the session's canonical table to memory so a failure
// can still produce a clean error response.
func exportCSV(r *http.Request) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := sessionFrom(r.Context()).Export(r.Context(), &buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func writeCSVAttachment(w http.ResponseWriter, r *http.Request, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", dataio.ExportContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataio.ExportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
	}
}

// handleExport downloads the canonical table as edited_data.csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	buf, err := exportCSV(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeCSVAttachment(w, r, buf)
}

// handleViewExport is the View page's download link. Failures re-render the
// View page with the error.
func (s *Server) handleViewExport(w http.ResponseWriter, r *http.Request) {
	buf, err := exportCSV(r)
	if err != nil {
		sess := sessionFrom(r.Context())
		data, _ := sess.Data()
		renderPage(w, r, statusForError(err), templates.ViewPage(templates.ViewPageParams{
			State: sess.State(),
			Table: data,
			Flash: pageFlash(r, err),
		}))
		return
	}
	writeCSVAttachment(w, r, buf)
}
