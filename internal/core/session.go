package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/DataEditor/internal/dataio"
	"github.com/JonMunkholm/DataEditor/internal/filter"
	"github.com/JonMunkholm/DataEditor/internal/table"
)

// Page is one of the three screens a session can be on.
type Page string

const (
	PageUpload Page = "upload"
	PageEdit   Page = "edit"
	PageView   Page = "view"
)

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch p := Page(s); p {
	case PageUpload, PageEdit, PageView:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPage, s)
	}
}

// Session is one user's dataset and page state.
//
// The canonical table is replaced wholesale (on upload and commit) and never
// mutated in place, so it can be handed to readers without copying. The
// working copy exists only while the session is on the Edit page and is
// never exposed directly.
//
// Every method runs under the session mutex; actions are applied one at a
// time and a failing action leaves the session unchanged.
type Session struct {
	ID        string
	CreatedAt time.Time

	lastActive atomic.Int64 // unix nanos

	mu       sync.Mutex
	page     Page
	data     *table.Table
	fileName string
	working  *table.Table
	dirty    bool
	history  *ActivityLog
}

func newSession(id string, now time.Time, historyLimit int) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: now,
		page:      PageUpload,
		history:   NewActivityLog(historyLimit),
	}
	s.touch(now)
	return s
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// LastActive returns the time of the most recent request on this session.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// State is a read-only snapshot of a session for display.
type State struct {
	ID          string    `json:"id"`
	Page        Page      `json:"page"`
	HasData     bool      `json:"has_data"`
	FileName    string    `json:"file_name,omitempty"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	Editing     bool      `json:"editing"`
	Uncommitted bool      `json:"uncommitted"`
	WorkingRows int       `json:"working_rows,omitempty"`
	WorkingCols int       `json:"working_columns,omitempty"`
	LastActive  time.Time `json:"last_active"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:          s.ID,
		Page:        s.page,
		HasData:     s.data != nil,
		FileName:    s.fileName,
		Editing:     s.working != nil,
		Uncommitted: s.dirty,
		LastActive:  s.LastActive(),
	}
	if s.data != nil {
		st.Rows, st.Columns = s.data.Shape()
	}
	if s.working != nil {
		st.WorkingRows, st.WorkingCols = s.working.Shape()
	}
	return st
}

// Page returns the current page.
func (s *Session) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Data returns the canonical table, or ErrNoData when nothing is loaded.
// Callers must treat the result as read-only.
func (s *Session) Data() (*table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNoData
	}
	return s.data, nil
}

// Working returns a copy of the working table.
func (s *Session) Working() (*table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return nil, err
	}
	return s.working.Clone(), nil
}

// Navigate switches pages. Entering Edit requires loaded data and starts a
// fresh working copy; leaving Edit discards it. Navigating to the current
// page is a no-op.
func (s *Session) Navigate(ctx context.Context, to Page) error {
	if _, err := ParsePage(string(to)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(ctx, to)
}

func (s *Session) navigateLocked(ctx context.Context, to Page) error {
	if to == s.page {
		return nil
	}
	if to == PageEdit && s.data == nil {
		return ErrNoData
	}

	from := s.page
	discarded := s.dirty
	if from == PageEdit {
		s.working = nil
		s.dirty = false
	}
	if to == PageEdit {
		s.working = s.data.Clone()
	}
	s.page = to

	detail := ""
	if discarded {
		detail = "uncommitted edits discarded"
	}
	s.history.Record(ctx, ActivityParams{
		Action:   ActionNavigate,
		OldValue: string(from),
		NewValue: string(to),
		Detail:   detail,
	})
	return nil
}

// load installs a freshly parsed table as the canonical dataset.
func (s *Session) load(ctx context.Context, name string, t *table.Table, previewRows int) UploadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uploading always lands on the Upload page.
	_ = s.navigateLocked(ctx, PageUpload)
	s.data = t
	s.fileName = name

	rows, cols := t.Shape()
	s.history.Record(ctx, ActivityParams{
		Action:       ActionUpload,
		NewValue:     name,
		RowsAffected: rows,
	})
	return UploadResult{
		FileName: name,
		Rows:     rows,
		Columns:  cols,
		Names:    t.ColumnNames(),
		Preview:  t.Head(previewRows),
	}
}

// uploadFailed records a rejected upload. Nothing else changes: the page,
// the canonical table and any working copy stay as they were.
func (s *Session) uploadFailed(ctx context.Context, name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Record(ctx, ActivityParams{
		Action:   ActionUploadFailed,
		NewValue: name,
		Detail:   err.Error(),
	})
}

func (s *Session) requireEditing() error {
	if s.page != PageEdit || s.working == nil {
		return ErrNotEditing
	}
	return nil
}

// DeleteColumns removes columns from the working copy.
func (s *Session) DeleteColumns(ctx context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}

	out, err := s.working.DropColumns(names...)
	if err != nil {
		return err
	}
	s.working = out
	s.dirty = s.dirty || len(names) > 0

	for _, name := range names {
		s.history.Record(ctx, ActivityParams{Action: ActionColumnDelete, Column: name})
	}
	return nil
}

// SetCell edits one cell of the working copy.
func (s *Session) SetCell(ctx context.Context, row int, column, text string) (table.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return table.Value{}, err
	}

	var old table.Value
	if col, err := s.working.Column(column); err == nil && row >= 0 && row < col.Len() {
		old = col.At(row)
	}

	v, err := s.working.SetCell(row, column, text)
	if err != nil {
		return table.Value{}, err
	}
	s.dirty = true

	s.history.Record(ctx, ActivityParams{
		Action:   ActionCellEdit,
		Row:      &row,
		Column:   column,
		OldValue: old.String(),
		NewValue: v.String(),
	})
	return v, nil
}

// InsertRow appends an empty row to the working copy and returns its index.
func (s *Session) InsertRow(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return 0, err
	}

	idx := s.working.InsertRow()
	s.dirty = true
	s.history.Record(ctx, ActivityParams{Action: ActionRowInsert, Row: &idx, RowsAffected: 1})
	return idx, nil
}

// DeleteRows removes rows from the working copy.
func (s *Session) DeleteRows(ctx context.Context, rows ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}

	before := s.working.Len()
	if err := s.working.DeleteRows(rows...); err != nil {
		return err
	}
	removed := before - s.working.Len()
	if removed > 0 {
		s.dirty = true
		s.history.Record(ctx, ActivityParams{Action: ActionRowDelete, RowsAffected: removed})
	}
	return nil
}

// ApplyFilter filters the working copy for display. The filter is not
// stored: the working copy itself is unchanged and later actions see all of
// its rows. When nothing matches, the result shows the whole working copy and
// carries filter.ErrEmptyFilterResult.
func (s *Session) ApplyFilter(ctx context.Context, column, text string) (filter.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return filter.Result{}, err
	}

	res, err := filter.Apply(s.working, column, text)
	if err != nil {
		return filter.Result{}, err
	}
	if res.Warning != nil {
		res.Display = s.working.Clone()
	}

	s.history.Record(ctx, ActivityParams{
		Action:       ActionFilter,
		Column:       column,
		NewValue:     text,
		RowsAffected: res.Matched,
	})
	return res, nil
}

// FilterOptions describes how the given working-copy column can be filtered.
func (s *Session) FilterOptions(column string, limit int) (filter.Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return filter.Options{}, err
	}
	return filter.OptionsFor(s.working, column, limit)
}

// Commit makes a copy of the working table the new canonical table. Filters
// are never part of a commit. The session stays on Edit.
func (s *Session) Commit(ctx context.Context) (rows, cols int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return 0, 0, err
	}

	s.data = s.working.Clone()
	s.dirty = false
	rows, cols = s.data.Shape()

	s.history.Record(ctx, ActivityParams{Action: ActionCommit, RowsAffected: rows})
	return rows, cols, nil
}

// Export writes the canonical table as CSV. An absent or empty table is
// refused.
func (s *Session) Export(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	if data == nil {
		return ErrNoData
	}
	if data.IsEmpty() {
		return ErrEmptyDataset
	}
	if err := dataio.WriteCSV(w, data); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	s.mu.Lock()
	s.history.Record(ctx, ActivityParams{Action: ActionExport, RowsAffected: data.Len()})
	s.mu.Unlock()
	return nil
}

// History returns up to limit recent activity entries, newest first.
func (s *Session) History(limit int) []ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Recent(limit)
}
