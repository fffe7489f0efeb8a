// Package seed loads demo profiles, rounds and social edges into golfr,
// either through a running server's API or straight into a backend.
package seed

import (
	"fmt"
	"time"

	"github.com/okian/golfr/internal/domain/model"
)

// CurrentUser is the profile the demo data is centred on.
const CurrentUser = "jake"

// PlannedRound is one round to submit.
type PlannedRound struct {
	UserID   string
	CourseID string
	Date     string
	Score    int
	Holes    []model.HoleEntry
	Notes    string
}

// Key is the idempotency key the round is submitted under.
func (p PlannedRound) Key() string { //nolint:gocritic // hugeParam: plan rows are small values
	return fmt.Sprintf("seed:%s:%s:%s:%d", p.UserID, p.CourseID, p.Date, p.Score)
}

// Round converts the plan row into a domain round.
func (p PlannedRound) Round() (model.Round, error) { //nolint:gocritic // hugeParam: plan rows are small values
	played, err := time.Parse(model.DateLayout, p.Date)
	if err != nil {
		return model.Round{}, fmt.Errorf("round %s: %w", p.Key(), err)
	}
	return model.Round{
		UserID:   p.UserID,
		CourseID: p.CourseID,
		PlayedOn: played,
		Score:    p.Score,
		Holes:    p.Holes,
		Notes:    p.Notes,
	}, nil
}

// PlannedComment targets the round at index Round of Plan.Rounds.
type PlannedComment struct {
	UserID  string
	Round   int
	Content string
}

// Plan is the full data set of a seeding run.
type Plan struct {
	Profiles []model.UserProfile
	Rounds   []PlannedRound
	Follows  [][2]string
	Comments []PlannedComment
}

func played(user, course, date string, score int) PlannedRound {
	return PlannedRound{UserID: user, CourseID: course, Date: date, Score: score}
}

// nine builds a nine-hole breakdown on par-36 holes summing to score.
func nine(score int) []model.HoleEntry {
	holes := make([]model.HoleEntry, 9)
	rest := score
	for i := range holes {
		strokes := rest / (9 - i)
		holes[i] = model.HoleEntry{Number: i + 1, Par: 4, Strokes: strokes}
		rest -= strokes
	}
	return holes
}

// DefaultPlan returns the demo data set: the current user's round history,
// a handful of friends, and the social edges between them.
func DefaultPlan() Plan {
	const (
		riviera  = "riviera-country-club"
		sandpipe = "sandpiper-golf-club"
		pebble   = "pebble-beach"
		rustic   = "rustic-canyon-golf-course"
		alisal   = "alisal-river-course"
		olivas   = "olivas-links"
	)

	rounds := []PlannedRound{
		played(CurrentUser, riviera, "2025-11-17", 103),
		played(CurrentUser, sandpipe, "2025-11-02", 85),
		played(CurrentUser, sandpipe, "2025-10-28", 87),
		played(CurrentUser, pebble, "2025-10-15", 92),
		played(CurrentUser, pebble, "2025-09-20", 95),
		played(CurrentUser, sandpipe, "2025-09-05", 88),
		played(CurrentUser, riviera, "2025-08-15", 98),
		played(CurrentUser, pebble, "2025-08-01", 90),
		played(CurrentUser, sandpipe, "2025-07-22", 82),
		played(CurrentUser, riviera, "2025-07-10", 96),
		played(CurrentUser, pebble, "2025-06-25", 88),
		played(CurrentUser, sandpipe, "2025-06-12", 84),
		played(CurrentUser, rustic, "2025-05-30", 78),
		played(CurrentUser, rustic, "2025-05-15", 79),
		played(CurrentUser, alisal, "2025-04-28", 81),
		played(CurrentUser, alisal, "2025-04-10", 83),
		played(CurrentUser, pebble, "2025-03-22", 91),
		played(CurrentUser, sandpipe, "2025-03-05", 86),
		played(CurrentUser, riviera, "2025-02-18", 101),
		played(CurrentUser, rustic, "2025-02-01", 72),

		played("jack", riviera, "2025-11-16", 74),
		played("jack", pebble, "2025-10-02", 77),
		played("jaxonsmith", rustic, "2025-11-10", 72),
		played("jaxonsmith", alisal, "2025-09-14", 80),
		played("janedoe", sandpipe, "2025-10-20", 94),
		{UserID: "johnnyA", CourseID: olivas, Date: "2025-11-01", Score: 40, Holes: nine(40), Notes: "Quick nine after work"},
	}
	rounds[0].Notes = "Great day at Riviera. Tough greens but sank a few long putts."

	return Plan{
		Profiles: []model.UserProfile{
			{ID: CurrentUser, Username: "jake", DisplayName: "Jake Shockley", Handicap: 10.2, Bio: "Just a guy who loves golf. Trying to break 80 consistently."},
			{ID: "jack", Username: "jack", DisplayName: "Jack Burke", Handicap: 3.1},
			{ID: "jaxonsmith", Username: "jaxonsmith", DisplayName: "Jaxon Smith", Handicap: 4.8},
			{ID: "janedoe", Username: "janedoe", DisplayName: "Jane Doe", Handicap: 21.5},
			{ID: "johnnyA", Username: "johnnyA", DisplayName: "John Appleseed"},
			{ID: "jhole", Username: "jhole", DisplayName: "Jackson Hole", Handicap: 14},
		},
		Rounds: rounds,
		Follows: [][2]string{
			{CurrentUser, "jack"},
			{CurrentUser, "jaxonsmith"},
			{"jack", CurrentUser},
			{"janedoe", CurrentUser},
		},
		Comments: []PlannedComment{
			{UserID: "jack", Round: 0, Content: "Riviera greens are no joke. Nice grind."},
			{UserID: "jaxonsmith", Round: 19, Content: "72 at Rustic! Matching that was tough."},
		},
	}
}
