package model

import "time"

// EventKind discriminates pipeline events.
type EventKind string

// Pipeline event kinds.
const (
	EventRoundSubmitted EventKind = "round_submitted"
	EventLikeToggled    EventKind = "like_toggled"
)

// Event is a unit of asynchronous work handed to the worker pool.
type Event struct {
	Kind    EventKind
	UserID  string
	RoundID string
	Score   int  // round_submitted: total strokes
	Holes   int  // round_submitted: holes played
	Liked   bool // like_toggled: state after the toggle
	TS      time.Time
}
