// Package catalog holds the course catalog and its search filter.
package catalog

import (
	"strings"

	"github.com/okian/golfr/internal/domain/model"
)

// Query narrows a course search. Zero values disable a filter.
type Query struct {
	Text          string  // matched against name or location, case-insensitive
	Holes         int     // exact hole count
	MaxDifficulty float64 // inclusive ceiling, zero for none
	DrivingRange  bool
	PuttingGreen  bool
	AnyPractice   bool // driving range or putting green
}

// Empty reports whether the query filters nothing.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Text) == "" && q.Holes == 0 && q.MaxDifficulty == 0 &&
		!q.DrivingRange && !q.PuttingGreen && !q.AnyPractice
}

// Match reports whether c satisfies every active filter.
func (q Query) Match(c model.Course) bool {
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		if !strings.Contains(strings.ToLower(c.Name), text) &&
			!strings.Contains(strings.ToLower(c.Location), text) {
			return false
		}
	}
	if q.Holes != 0 && c.Holes != q.Holes {
		return false
	}
	if q.MaxDifficulty > 0 && c.Difficulty > q.MaxDifficulty {
		return false
	}
	if q.DrivingRange && !c.HasDrivingRange {
		return false
	}
	if q.PuttingGreen && !c.HasPuttingGreen {
		return false
	}
	if q.AnyPractice && !c.HasPracticeFacility() {
		return false
	}
	return true
}

// Filter returns the courses matching q in catalog order. The input is
// never modified.
func Filter(courses []model.Course, q Query) []model.Course {
	out := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if q.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Find looks a course up by id, falling back to an exact name match.
func Find(courses []model.Course, key string) (model.Course, bool) {
	for _, c := range courses {
		if c.ID == key {
			return c, true
		}
	}
	for _, c := range courses {
		if c.Name == key {
			return c, true
		}
	}
	return model.Course{}, false
}

// Slug derives a stable course id from its name.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func course(name, location string, holes int, difficulty float64, rangeOK, greenOK bool) model.Course {
	return model.Course{
		ID:              Slug(name),
		Name:            name,
		Location:        location,
		Holes:           holes,
		Difficulty:      difficulty,
		HasDrivingRange: rangeOK,
		HasPuttingGreen: greenOK,
	}
}

func rated(c model.Course, par int, rating float64, slope int) model.Course {
	c.Par, c.Rating, c.Slope = par, rating, slope
	return c
}

// Default returns the built-in catalog of Southern and Central California
// courses. Each call returns a fresh slice.
func Default() []model.Course {
	return []model.Course{
		course("Los Robles Greens", "Thousand Oaks, CA", 18, 7.1, true, true),
		course("Westlake Golf Course", "Westlake Village, CA", 18, 6.2, true, true),
		rated(course("Rustic Canyon Golf Course", "Moorpark, CA", 18, 8.5, true, true), 72, 72.8, 130),
		course("Moorpark Country Club", "Moorpark, CA", 27, 9.1, true, true),
		rated(course("Sandpiper Golf Club", "Goleta, CA", 18, 9.4, true, true), 72, 74.5, 135),
		rated(course("Pebble Beach", "Pebble Beach, CA", 18, 9.8, true, true), 72, 75.5, 145),
		course("The Links at Spanish Bay", "Pebble Beach, CA", 18, 9.2, true, false),
		course("Simi Hills Golf Course", "Simi Valley, CA", 18, 6.8, true, true),
		course("Olivas Links", "Ventura, CA", 18, 7.5, true, true),
		rated(course("Riviera Country Club", "Pacific Palisades, CA", 18, 9.6, true, true), 71, 75.6, 142),
		rated(course("Alisal River Course", "Solvang, CA", 18, 7.0, true, true), 72, 71.5, 127),
	}
}
