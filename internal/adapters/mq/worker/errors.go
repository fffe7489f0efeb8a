package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrHandlerPanic = errors.New("event handler panicked")
	ErrDrainTimeout = errors.New("worker pool drain timed out")
)
