package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrInvalidScore   = errors.New("invalid score")
	ErrSelfFollow     = errors.New("cannot follow yourself")
	ErrInvalidComment = errors.New("invalid comment")
	ErrInvalidPost    = errors.New("invalid post")
	ErrInvalidRanking = errors.New("invalid course ranking")
)
