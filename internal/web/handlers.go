package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/logging"
	"github.com/JonMunkholm/DataEditor/internal/web/templates"
)

// renderPage writes a full HTML page with the given status.
func renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// handleIndex sends visitors to the Upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

// handleUploadPage renders the Upload page. Arriving here leaves Edit and
// discards any uncommitted edits.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Navigate(r.Context(), core.PageUpload); err != nil {
		s.fail(w, r, err)
		return
	}
	renderPage(w, r, http.StatusOK, templates.UploadPage(templates.UploadPageParams{
		State:       sess.State(),
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	}))
}

// handleEditPage renders the working copy. Entering Edit from another page
// starts a fresh working copy; without data the Upload page is shown with
// the error.
//
// Query parameters:
//   - column: show the filter value picker for this column
func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Navigate(r.Context(), core.PageEdit); err != nil {
		renderPage(w, r, statusForError(err), templates.UploadPage(templates.UploadPageParams{
			State:       sess.State(),
			MaxFileSize: s.cfg.Upload.MaxFileSize,
			Flash:       pageFlash(r, err),
		}))
		return
	}

	params := templates.EditPageParams{}
	if column := r.URL.Query().Get("column"); column != "" {
		opts, err := s.service.FilterOptions(sess, column)
		if err != nil {
			params.Flash = pageFlash(r, err)
		} else {
			params.Options = &opts
		}
	}
	s.renderEdit(w, r, http.StatusOK, params)
}

// renderEdit fills in the working copy (unless a filter display is set) and
// renders the Edit page.
func (s *Server) renderEdit(w http.ResponseWriter, r *http.Request, status int, params templates.EditPageParams) {
	sess := sessionFrom(r.Context())
	if params.Table == nil {
		working, err := sess.Working()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		params.Table = working
	}
	params.State = sess.State()
	renderPage(w, r, status, templates.EditPage(params))
}

// handleEditAction applies an edit posted from the Edit page. Successful
// edits redirect back to /edit; a filter renders its result directly.
func (s *Server) handleEditAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	action := chi.URLParam(r, "action")

	if err := r.ParseForm(); err != nil {
		s.renderEdit(w, r, http.StatusBadRequest, templates.EditPageParams{
			Flash: pageFlash(r, fmt.Errorf("%w: %v", errBadRequest, err)),
		})
		return
	}

	var err error
	switch action {
	case "delete-columns":
		columns := r.Form["columns"]
		if len(columns) == 0 {
			err = fmt.Errorf("%w: no columns selected", errBadRequest)
			break
		}
		err = sess.DeleteColumns(ctx, columns...)

	case "cell":
		var row int
		row, err = strconv.Atoi(r.FormValue("row"))
		if err != nil {
			err = fmt.Errorf("%w: row %q is not an integer", errBadRequest, r.FormValue("row"))
			break
		}
		_, err = sess.SetCell(ctx, row, r.FormValue("column"), r.FormValue("value"))

	case "insert-row":
		_, err = sess.InsertRow(ctx)

	case "delete-rows":
		var rows []int
		if rows, err = parseRowParams(r.Form["rows"]); err == nil {
			err = sess.DeleteRows(ctx, rows...)
		}

	case "commit":
		_, _, err = sess.Commit(ctx)

	case "filter":
		s.handleEditFilter(w, r, sess)
		return

	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		if errors.Is(err, core.ErrNotEditing) {
			s.fail(w, r, err)
			return
		}
		s.renderEdit(w, r, statusForError(err), templates.EditPageParams{Flash: pageFlash(r, err)})
		return
	}
	http.Redirect(w, r, "/edit", http.StatusSeeOther)
}

// handleEditFilter renders the Edit page with a filtered display.
func (s *Server) handleEditFilter(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	column := r.FormValue("column")
	res, err := sess.ApplyFilter(r.Context(), column, r.FormValue("value"))
	if err != nil {
		params := templates.EditPageParams{Flash: pageFlash(r, err)}
		if opts, optErr := s.service.FilterOptions(sess, column); optErr == nil {
			params.Options = &opts
		}
		s.renderEdit(w, r, statusForError(err), params)
		return
	}

	params := templates.EditPageParams{Table: res.Display, Filter: &res}
	if res.Warning != nil {
		params.Flash = pageFlash(r, res.Warning)
	}
	s.renderEdit(w, r, http.StatusOK, params)
}

// handleViewPage renders the committed dataset read-only.
func (s *Server) handleViewPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Navigate(r.Context(), core.PageView); err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := sess.Data()
	if err != nil && !errors.Is(err, core.ErrNoData) {
		s.fail(w, r, err)
		return
	}
	renderPage(w, r, http.StatusOK, templates.ViewPage(templates.ViewPageParams{
		State: sess.State(),
		Table: data,
	}))
}

// handleSessionState returns a snapshot of the caller's session.
func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).State())
}

// NavigateRequest is the body of POST /api/navigate.
type NavigateRequest struct {
	Page string `json:"page"`
}

// handleNavigate moves the session to another page.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := core.ParsePage(req.Page)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	if err := sess.Navigate(r.Context(), page); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// HealthResponse reports liveness and load.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Sessions int                      `json:"sessions"`
	Uploads  core.UploadLimiterStatus `json:"uploads"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.service.SessionCount(),
		Uploads:  s.service.UploadStatus(),
	})
}
