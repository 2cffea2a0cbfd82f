package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted appropriately based on request type (HTMX, JSON, or HTML)
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in appropriate format for the client
//
// Page handlers render the message inside the page instead; see pageFlash.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/dataio"
	"github.com/JonMunkholm/DataEditor/internal/filter"
	"github.com/JonMunkholm/DataEditor/internal/logging"
	"github.com/JonMunkholm/DataEditor/internal/table"
	"github.com/JonMunkholm/DataEditor/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusForError picks the HTTP status for a domain error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrNoData),
		errors.Is(err, core.ErrNotEditing),
		errors.Is(err, core.ErrEmptyDataset):
		return http.StatusConflict
	case errors.Is(err, table.ErrColumnNotFound),
		errors.Is(err, table.ErrRowOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, table.ErrInvalidNumber),
		errors.Is(err, table.ErrInvalidTimestamp),
		errors.Is(err, table.ErrInvalidBoolean),
		errors.Is(err, dataio.ErrEmptyInput),
		errors.Is(err, dataio.ErrMalformedInput),
		errors.Is(err, dataio.ErrUnknownRead):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dataio.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrUnknownPage),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errBadRequest marks request bodies and parameters that could not be read.
var errBadRequest = errors.New("bad request")

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or HTML).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := logError(r, err, statusCode)

	if isHTMX(r) {
		renderErrorPartial(w, r, userMsg, statusCode)
	} else if wantsJSON(r) {
		respondErrorJSON(w, err, userMsg, statusCode)
	} else {
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// fail is respondError with the status derived from err.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusForError(err))
}

// logError logs err with request context and returns its user message.
// Client errors log at warn, server errors at error.
func logError(r *http.Request, err error, statusCode int) core.UserMessage {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}
	return userMsg
}

// pageFlash logs err and converts it to a flash for in-page display.
// Filter warnings render as warnings, everything else as errors.
func pageFlash(r *http.Request, err error) *templates.Flash {
	kind := templates.FlashError
	var msg core.UserMessage
	if errors.Is(err, filter.ErrEmptyFilterResult) {
		kind = templates.FlashWarning
		msg = core.MapError(err)
	} else {
		msg = logError(r, err, statusForError(err))
	}
	return &templates.Flash{Kind: kind, Message: msg.Message, Action: msg.Action, Code: msg.Code}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, err error, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorText(err, statusCode),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// errorText is the technical error exposed to API clients. Server errors are
// reduced to the status text.
func errorText(err error, statusCode int) string {
	if statusCode >= http.StatusInternalServerError {
		return http.StatusText(statusCode)
	}
	return err.Error()
}

// respondErrorHTML writes a plain HTML error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
