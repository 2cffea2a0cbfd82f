package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/DataEditor/internal/dataio"
	"github.com/JonMunkholm/DataEditor/internal/filter"
	"github.com/JonMunkholm/DataEditor/internal/table"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// DefaultPreviewRows is the number of rows shown after an upload.
const DefaultPreviewRows = 5

// Options configures a Service. Zero values select the defaults.
type Options struct {
	SessionTTL           time.Duration
	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
	PreviewRows          int
	DistinctLimit        int
	HistoryLimit         int
}

// Service owns every live session and the shared upload limiter.
type Service struct {
	opts    Options
	limiter *UploadLimiter

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a new Service instance.
func NewService(opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	if opts.DistinctLimit <= 0 {
		opts.DistinctLimit = filter.DefaultDistinctLimit
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	return &Service{
		opts:     opts,
		limiter:  NewUploadLimiter(opts.MaxConcurrentUploads, opts.MaxUploadWait),
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a new, empty session on the Upload page.
func (s *Service) CreateSession() *Session {
	now := time.Now()
	sess := newSession(uuid.New().String(), now, s.opts.HistoryLimit)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	slog.Debug("session created", "session_id", sess.ID)
	return sess
}

// Session returns the live session with the given ID and marks it active.
func (s *Service) Session(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	sess.touch(time.Now())
	return sess, nil
}

// SessionOrCreate returns the session for id, or a new one when id is empty,
// unknown or expired. created reports which happened.
func (s *Service) SessionOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, err := s.Session(id); err == nil {
			return sess, false
		}
	}
	return s.CreateSession(), true
}

// RemoveSession drops a session.
func (s *Service) RemoveSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepExpired removes sessions idle for longer than the TTL as of now and
// returns how many were removed.
func (s *Service) SweepExpired(now time.Time) int {
	cutoff := now.Add(-s.opts.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// UploadResult describes a successfully loaded file.
type UploadResult struct {
	FileName string       `json:"file_name"`
	Rows     int          `json:"rows"`
	Columns  int          `json:"columns"`
	Names    []string     `json:"column_names"`
	Preview  *table.Table `json:"-"`
}

// Upload parses a file and, on success, makes it the session's canonical
// table and moves the session to the Upload page. A failed upload leaves the
// session exactly as it was, including the page and any uncommitted edits.
//
// Parsing runs outside the session lock and is bounded by the upload limiter.
func (s *Service) Upload(ctx context.Context, sess *Session, name string, r io.Reader) (*UploadResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	t, err := dataio.Read(name, r)
	if err != nil {
		sess.uploadFailed(ctx, name, err)
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}

	res := sess.load(ctx, name, t, s.opts.PreviewRows)
	slog.Info("upload parsed",
		"session_id", sess.ID,
		"file", name,
		"rows", res.Rows,
		"columns", res.Columns,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &res, nil
}

// FilterOptions reports how a working-copy column can be filtered, using the
// configured distinct-value limit.
func (s *Service) FilterOptions(sess *Session, column string) (filter.Options, error) {
	return sess.FilterOptions(column, s.opts.DistinctLimit)
}

// UploadStatus returns the upload limiter's current state.
func (s *Service) UploadStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for in-flight uploads to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
