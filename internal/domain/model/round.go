// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format of a played-on date.
const DateLayout = "2006-01-02"

// Sentinel validation kinds.
var (
	ErrInvalidRound = errors.New("invalid round")
	ErrInvalidHole  = errors.New("invalid hole entry")
)

// HoleEntry is the score record for a single hole within a round.
type HoleEntry struct {
	Number  int `json:"hole_number"`
	Par     int `json:"par"`
	Strokes int `json:"strokes"`
}

// ToPar returns strokes relative to par.
func (h HoleEntry) ToPar() int {
	return h.Strokes - h.Par
}

// Label names the hole result: Eagle (or better), Birdie, Par, Bogey,
// Double Bogey, or "+k" beyond that.
func (h HoleEntry) Label() string {
	switch d := h.ToPar(); {
	case d <= -2:
		return "Eagle"
	case d == -1:
		return "Birdie"
	case d == 0:
		return "Par"
	case d == 1:
		return "Bogey"
	case d == 2:
		return "Double Bogey"
	default:
		return fmt.Sprintf("+%d", d)
	}
}

// Round is one completed golf outing.
type Round struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	CourseID   string      `json:"course_id,omitempty"`
	CourseName string      `json:"course_name"`
	PlayedOn   time.Time   `json:"date_played"`
	Score      int         `json:"score"`
	Holes      []HoleEntry `json:"holes,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Par sums the par of the recorded holes, 0 without a breakdown.
func (r Round) Par() int {
	par := 0
	for _, h := range r.Holes {
		par += h.Par
	}
	return par
}

// HoleCount is the number of holes played. Rounds without a breakdown
// count as full 18-hole rounds.
func (r Round) HoleCount() int {
	if len(r.Holes) == 0 {
		return 18
	}
	return len(r.Holes)
}

// Validate checks the round invariants: a positive score, and when a
// per-hole breakdown is present, sequential hole numbers from 1 whose
// strokes add up to the score.
func (r Round) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidRound)
	}
	if r.Score < 1 {
		return fmt.Errorf("%w: score must be positive, got %d", ErrInvalidRound, r.Score)
	}
	if len(r.Holes) == 0 {
		return nil
	}
	sum := 0
	for i, h := range r.Holes {
		if h.Number != i+1 {
			return fmt.Errorf("%w: hole %d out of sequence at position %d", ErrInvalidHole, h.Number, i+1)
		}
		if h.Strokes < 1 {
			return fmt.Errorf("%w: hole %d has %d strokes", ErrInvalidHole, h.Number, h.Strokes)
		}
		if h.Par < 1 {
			return fmt.Errorf("%w: hole %d has par %d", ErrInvalidHole, h.Number, h.Par)
		}
		sum += h.Strokes
	}
	if sum != r.Score {
		return fmt.Errorf("%w: hole strokes sum to %d, score is %d", ErrInvalidRound, sum, r.Score)
	}
	return nil
}
