package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownCourse = errors.New("unknown course")
	ErrInFlight      = errors.New("submission with this idempotency key is in progress")
	ErrUnknownEvent  = errors.New("unknown event kind")
)
