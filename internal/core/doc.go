// Package core provides the session logic of the data editor.
//
// This package holds all domain orchestration independent of HTTP. It can be
// driven by the web handlers or by tests without modification.
//
// # Architecture
//
//   - Service: owns the live sessions, the upload limiter and the expiry
//     sweeper. Entry point for creating and looking up sessions and for
//     uploads.
//   - Session: one user's canonical table, the working copy used while
//     editing, the current page and an activity history.
//   - Errors: technical errors are mapped to user messages with [MapError].
//
// # Pages
//
// A session is always on one of three pages:
//
//	Upload ──(upload ok)──> canonical table replaced, 5-row preview
//	Edit   ──(enter)──────> working copy := clone(canonical)
//	       ──(commit)─────> canonical := clone(working copy)
//	       ──(leave)──────> working copy discarded
//	View   ──(export)─────> CSV of the canonical table
//
// Entering Edit without data fails with [ErrNoData]; edit actions on any
// other page fail with [ErrNotEditing]. Filters are computed on the working
// copy for display only and are never committed.
//
// # Concurrency
//
// Each session has its own mutex, so its actions run one at a time. Sessions
// are independent of each other. File parsing happens outside the session
// lock, bounded by an [UploadLimiter].
//
// # Error Handling
//
// Each error category has a code for support reference:
//
//   - FILE001-FILE007: upload and parse errors
//   - VAL001-VAL005: values that do not fit a column, bad row or column
//   - FLT001: filter matched nothing (warning)
//   - SES001-SES005: session state errors
//   - UPL002-UPL005: capacity, cancellation and timeouts
package core
