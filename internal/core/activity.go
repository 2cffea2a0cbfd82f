package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ActivityAction represents the type of session action being recorded.
type ActivityAction string

const (
	ActionUpload       ActivityAction = "upload"
	ActionUploadFailed ActivityAction = "upload_failed"
	ActionNavigate     ActivityAction = "navigate"
	ActionColumnDelete ActivityAction = "column_delete"
	ActionCellEdit     ActivityAction = "cell_edit"
	ActionRowInsert    ActivityAction = "row_insert"
	ActionRowDelete    ActivityAction = "row_delete"
	ActionFilter       ActivityAction = "filter"
	ActionCommit       ActivityAction = "commit"
	ActionExport       ActivityAction = "export"
)

// ActivitySeverity represents how much an action changes the dataset.
type ActivitySeverity string

const (
	SeverityLow    ActivitySeverity = "low"
	SeverityMedium ActivitySeverity = "medium"
	SeverityHigh   ActivitySeverity = "high"
)

// DefaultHistoryLimit is the number of entries a session keeps.
const DefaultHistoryLimit = 200

// ActivityEntry is a single recorded session action.
type ActivityEntry struct {
	ID           string           `json:"id"`
	Action       ActivityAction   `json:"action"`
	Severity     ActivitySeverity `json:"severity"`
	Row          *int             `json:"row,omitempty"`
	Column       string           `json:"column,omitempty"`
	OldValue     string           `json:"old_value,omitempty"`
	NewValue     string           `json:"new_value,omitempty"`
	RowsAffected int              `json:"rows_affected,omitempty"`
	Detail       string           `json:"detail,omitempty"`
	IPAddress    string           `json:"ip_address,omitempty"`
	UserAgent    string           `json:"user_agent,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Client identifies who issued an action. The web layer attaches it to the
// request context; entries recorded under that context carry it.
type Client struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// WithClient returns a copy of ctx carrying c.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the client attached by WithClient, or the zero Client.
func ClientFrom(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// ActivityParams contains parameters for recording an activity entry.
type ActivityParams struct {
	Action       ActivityAction
	Row          *int
	Column       string
	OldValue     string
	NewValue     string
	RowsAffected int
	Detail       string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action ActivityAction) ActivitySeverity {
	switch action {
	case ActionUpload, ActionCommit, ActionColumnDelete, ActionRowDelete:
		return SeverityHigh
	case ActionNavigate, ActionFilter, ActionExport, ActionUploadFailed:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// ActivityLog is a bounded, in-memory history of one session's actions.
// It is not safe for concurrent use; the owning session serializes access.
type ActivityLog struct {
	entries []ActivityEntry
	limit   int
}

// NewActivityLog returns a log that keeps the newest limit entries.
func NewActivityLog(limit int) *ActivityLog {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ActivityLog{limit: limit}
}

// Record appends an entry, stamping it with the client details carried by
// ctx, and evicts the oldest entry once the log is full.
func (l *ActivityLog) Record(ctx context.Context, p ActivityParams) ActivityEntry {
	client := ClientFrom(ctx)
	entry := ActivityEntry{
		ID:           uuid.New().String(),
		Action:       p.Action,
		Severity:     determineSeverity(p.Action),
		Row:          p.Row,
		Column:       p.Column,
		OldValue:     p.OldValue,
		NewValue:     p.NewValue,
		RowsAffected: p.RowsAffected,
		Detail:       p.Detail,
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		CreatedAt:    time.Now(),
	}
	if p.Row != nil {
		row := *p.Row
		entry.Row = &row
	}

	if len(l.entries) >= l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, entry)

	slog.DebugContext(ctx, "session activity",
		"action", entry.Action,
		"severity", entry.Severity,
		"column", entry.Column,
		"rows_affected", entry.RowsAffected,
	)
	return entry
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (l *ActivityLog) Recent(n int) []ActivityEntry {
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]ActivityEntry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len returns the number of stored entries.
func (l *ActivityLog) Len() int {
	return len(l.entries)
}
