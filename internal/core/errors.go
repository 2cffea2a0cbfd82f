package core

import "errors"

// Session errors.
var (
	ErrNoData          = errors.New("no data loaded")
	ErrNotEditing      = errors.New("not in edit mode")
	ErrEmptyDataset    = errors.New("dataset is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownPage     = errors.New("unknown page")
)

// Request errors raised before a file reaches the parser.
var (
	ErrNoFile       = errors.New("no file provided")
	ErrFileTooLarge = errors.New("file too large")
)
