package entry

import "errors"

// Sentinel kinds for round-entry errors.
var (
	ErrFinished         = errors.New("round entry already submitted")
	ErrWrongState       = errors.New("action not allowed in current state")
	ErrNoCourse         = errors.New("no course selected")
	ErrInvalidHoleCount = errors.New("hole count must be 9 or 18")
	ErrUnknownHole      = errors.New("unknown hole")
	ErrNoPrevious       = errors.New("no previous step")
	ErrUnknownAction    = errors.New("unknown action")
	ErrPersist          = errors.New("round could not be saved")
	ErrSessionNotFound  = errors.New("entry session not found")
)
