package web

import (
	"net/http"

	"github.com/JonMunkholm/DataEditor/internal/core"
)

// defaultHistoryPage is the number of history entries returned by default.
const defaultHistoryPage = 50

// HistoryResponse lists recent session activity, newest first.
type HistoryResponse struct {
	Entries []core.ActivityEntry `json:"entries"`
}

// handleHistory returns the session's recent activity.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultHistoryPage)
	entries := sessionFrom(r.Context()).History(limit)
	if entries == nil {
		entries = []core.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}
