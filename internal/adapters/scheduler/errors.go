package scheduler

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrInvalidSpec = errors.New("invalid cron spec")
	ErrNoJob       = errors.New("no rebuild job")
)
