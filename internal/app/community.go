package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/golfr/internal/adapters/repository"
	"github.com/okian/golfr/internal/domain/catalog"
	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/pkg/logger"
)

const (
	// suggestedUsers is how many profiles an empty search suggests.
	suggestedUsers = 2
	searchLimit    = 20
	minHandicap    = -10
	maxHandicap    = 54
)

// SearchUsers finds profiles whose name or username contains term. A blank
// term suggests a few profiles viewer does not follow yet.
func (s *Service) SearchUsers(ctx context.Context, viewer, term string, limit int) ([]model.UserProfile, error) {
	if limit <= 0 {
		limit = searchLimit
	}
	if strings.TrimSpace(term) != "" {
		return s.store.SearchProfiles(ctx, term, limit)
	}

	all, err := s.store.SearchProfiles(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	skip := map[string]struct{}{viewer: {}}
	if viewer != "" {
		following, err := s.store.Following(ctx, viewer)
		if err != nil {
			return nil, err
		}
		for _, id := range following {
			skip[id] = struct{}{}
		}
	}
	out := make([]model.UserProfile, 0, suggestedUsers)
	for _, p := range all {
		if _, ok := skip[p.ID]; ok {
			continue
		}
		out = append(out, p)
		if len(out) == min(suggestedUsers, limit) {
			break
		}
	}
	return out, nil
}

// AddPost publishes a free-text post. @user and #course tags are taken
// from the content.
func (s *Service) AddPost(ctx context.Context, userID, content string) (model.TextPost, error) {
	p, err := s.store.AddPost(ctx, userID, content)
	if err != nil {
		return model.TextPost{}, err
	}
	s.logger.Debug(ctx, "post added",
		logger.String("user_id", userID),
		logger.Int("tagged_users", len(p.TaggedUsers)),
		logger.Int("tagged_courses", len(p.TaggedCourses)),
	)
	return p, nil
}

// SetHandicap stores a new handicap for an existing profile.
func (s *Service) SetHandicap(ctx context.Context, userID string, handicap float64) error {
	if handicap < minHandicap || handicap > maxHandicap {
		return fmt.Errorf("%w: handicap %.1f outside %d..%d", ErrInvalidInput, handicap, minHandicap, maxHandicap)
	}
	return s.store.UpdateHandicap(ctx, userID, handicap)
}

// CourseRankings returns userID's course ranking. Without a stored one it
// ranks the courses of the user's 18-hole rounds by average score.
func (s *Service) CourseRankings(ctx context.Context, userID string) ([]model.CourseRanking, error) {
	stored, err := s.store.CourseRankings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}

	rounds, err := s.store.RoundsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses(ctx)
	if err != nil {
		return nil, err
	}

	type tally struct {
		id, name string
		rounds   int
		total    int
	}
	byCourse := make(map[string]*tally)
	for _, r := range rounds {
		if r.HoleCount() != leaderboardHoles || r.CourseID == "" {
			continue
		}
		t, ok := byCourse[r.CourseID]
		if !ok {
			t = &tally{id: r.CourseID, name: r.CourseName}
			byCourse[r.CourseID] = t
		}
		t.rounds++
		t.total += r.Score
	}
	tallies := make([]*tally, 0, len(byCourse))
	for _, t := range byCourse {
		tallies = append(tallies, t)
	}
	avg := func(t *tally) float64 { return float64(t.total) / float64(t.rounds) }
	sort.Slice(tallies, func(i, j int) bool {
		a, b := tallies[i], tallies[j]
		if avg(a) != avg(b) {
			return avg(a) < avg(b)
		}
		if a.rounds != b.rounds {
			return a.rounds > b.rounds
		}
		return a.name < b.name
	})

	out := make([]model.CourseRanking, len(tallies))
	for i, t := range tallies {
		c, _ := catalog.Find(courses, t.id)
		out[i] = model.CourseRanking{
			Rank:     i + 1,
			CourseID: t.id,
			Name:     t.name,
			Location: c.Location,
			Rounds:   t.rounds,
			Average:  avg(t),
		}
	}
	return out, nil
}

// SetCourseRankings stores userID's course ranking, best first. Courses
// may be named by id or exact name.
func (s *Service) SetCourseRankings(ctx context.Context, userID string, courseKeys []string) ([]model.CourseRanking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	courses, err := s.courses(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(courseKeys))
	for i, key := range courseKeys {
		c, ok := catalog.Find(courses, key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCourse, key)
		}
		ids[i] = c.ID
	}
	if err := s.store.SetCourseRankings(ctx, userID, ids); err != nil {
		return nil, err
	}
	return s.CourseRankings(ctx, userID)
}

// feedItem checks that id names a round or a post.
func (s *Service) feedItem(ctx context.Context, id string) error {
	_, err := s.store.Round(ctx, id)
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	_, err = s.store.Post(ctx, id)
	return err
}
