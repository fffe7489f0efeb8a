package seed

import "errors"

// Sentinel kinds for seeding errors.
var (
	ErrRoundsFailed = errors.New("rounds failed to seed")
	ErrMismatch     = errors.New("leaderboard does not match plan")
	ErrStatus       = errors.New("unexpected response status")
)
