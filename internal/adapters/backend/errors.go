package backend

import "errors"

// Sentinel kinds for backend errors.
var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrInvalidValue  = errors.New("invalid column value")
	ErrMissingID     = errors.New("row has no id")
	ErrDuplicate     = errors.New("duplicate row id")
	ErrNotFound      = errors.New("row not found")
	ErrUnknownKind   = errors.New("unknown backend kind")
)
