package core

// scheduler.go runs background maintenance for the session store.
//
// Sessions live only in memory. The sweeper periodically drops sessions that
// have been idle for longer than the configured TTL, which releases their
// tables. It is long-running and stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionSweeper removes expired sessions every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval.String(),
		"session_ttl", s.opts.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case now := <-ticker.C:
			s.runSweep(now)
		}
	}
}

// runSweep performs one sweep cycle.
func (s *Service) runSweep(now time.Time) {
	start := time.Now()
	removed := s.SweepExpired(now)
	if removed == 0 {
		slog.Debug("session sweep completed", "sessions", s.SessionCount())
		return
	}
	slog.Info("expired sessions removed",
		"removed", removed,
		"remaining", s.SessionCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
