// Package stats aggregates a player's rounds into profile statistics.
//
// Every function here is pure and total: an empty input yields zero values,
// never an error.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/golfr/internal/domain/model"
)

// AllCourses selects every round in ForCourse.
const AllCourses = "All Courses"

// Summary is the aggregate over a round collection.
type Summary struct {
	RoundsPlayed int
	AverageScore float64
	BestScore    int
}

// Aggregate computes count, mean and minimum score. Order is irrelevant.
func Aggregate(rounds []model.Round) Summary {
	if len(rounds) == 0 {
		return Summary{}
	}
	total := 0
	best := rounds[0].Score
	for _, r := range rounds {
		total += r.Score
		if r.Score < best {
			best = r.Score
		}
	}
	return Summary{
		RoundsPlayed: len(rounds),
		AverageScore: float64(total) / float64(len(rounds)),
		BestScore:    best,
	}
}

// DisplayAverage rounds the mean half away from zero for display.
func (s Summary) DisplayAverage() int {
	return int(math.Round(s.AverageScore))
}

// Model converts the summary to its wire shape.
func (s Summary) Model() model.Stats {
	return model.Stats{
		RoundsPlayed: s.RoundsPlayed,
		AverageScore: s.AverageScore,
		BestScore:    s.BestScore,
	}
}

// ForCourse keeps the rounds played at courseName. Empty or AllCourses
// keeps everything.
func ForCourse(rounds []model.Round, courseName string) []model.Round {
	name := strings.TrimSpace(courseName)
	if name == "" || name == AllCourses {
		return rounds
	}
	out := make([]model.Round, 0, len(rounds))
	for _, r := range rounds {
		if r.CourseName == name {
			out = append(out, r)
		}
	}
	return out
}

// CourseNames lists the distinct course names in first-seen order.
func CourseNames(rounds []model.Round) []string {
	seen := make(map[string]struct{}, len(rounds))
	names := make([]string, 0, len(rounds))
	for _, r := range rounds {
		if _, ok := seen[r.CourseName]; ok {
			continue
		}
		seen[r.CourseName] = struct{}{}
		names = append(names, r.CourseName)
	}
	return names
}

// ScoreToPar renders total relative to par: "E", "+3" or "-2".
func ScoreToPar(total, par int) string {
	switch d := total - par; {
	case d == 0:
		return "E"
	case d > 0:
		return fmt.Sprintf("+%d", d)
	default:
		return fmt.Sprintf("%d", d)
	}
}

// FormatHandicap renders a handicap with one decimal.
func FormatHandicap(h float64) string {
	return fmt.Sprintf("%.1f", h)
}

// Handicap index constants from the World Handicap System.
const (
	maxDifferentials = 20
	minDifferentials = 3
	standardSlope    = 113.0
	maxIndex         = 54.0
)

// whsTable maps the number of available differentials to how many of the
// lowest are averaged and the adjustment applied.
var whsTable = []struct {
	upTo, use  int
	adjustment float64
}{
	{3, 1, -2.0},
	{4, 1, -1.0},
	{5, 1, 0},
	{6, 2, -1.0},
	{8, 2, 0},
	{11, 3, 0},
	{14, 4, 0},
	{16, 5, 0},
	{18, 6, 0},
	{19, 7, 0},
	{20, 8, 0},
}

// Differential is the score differential of one round on a rated course.
func Differential(score int, c model.Course) float64 {
	return (float64(score) - c.Rating) * standardSlope / float64(c.Slope)
}

// HandicapIndex derives an index from the most recent 20 eligible rounds:
// 18 holes on a rated course, looked up by course id then by name. ok is
// false with fewer than 3 eligible rounds.
func HandicapIndex(rounds []model.Round, courses []model.Course) (float64, bool) {
	byID := make(map[string]model.Course, len(courses))
	byName := make(map[string]model.Course, len(courses))
	for _, c := range courses {
		if !c.Rated() {
			continue
		}
		if c.ID != "" {
			byID[c.ID] = c
		}
		byName[c.Name] = c
	}

	eligible := make([]model.Round, 0, len(rounds))
	for _, r := range rounds {
		if r.HoleCount() != 18 {
			continue
		}
		if _, ok := lookup(r, byID, byName); ok {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) < minDifferentials {
		return 0, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].PlayedOn.After(eligible[j].PlayedOn)
	})
	if len(eligible) > maxDifferentials {
		eligible = eligible[:maxDifferentials]
	}

	diffs := make([]float64, len(eligible))
	for i, r := range eligible {
		c, _ := lookup(r, byID, byName)
		diffs[i] = Differential(r.Score, c)
	}
	sort.Float64s(diffs)

	var use int
	var adjustment float64
	for _, row := range whsTable {
		if len(diffs) <= row.upTo {
			use, adjustment = row.use, row.adjustment
			break
		}
	}

	sum := 0.0
	for _, d := range diffs[:use] {
		sum += d
	}
	index := sum/float64(use) + adjustment
	index = math.Round(index*10) / 10
	return math.Min(index, maxIndex), true
}

func lookup(r model.Round, byID, byName map[string]model.Course) (model.Course, bool) {
	if c, ok := byID[r.CourseID]; ok && r.CourseID != "" {
		return c, true
	}
	c, ok := byName[r.CourseName]
	return c, ok
}
