package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/golfr/internal/domain/catalog"
	"github.com/okian/golfr/internal/domain/entry"
	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/internal/domain/stats"
	"github.com/okian/golfr/pkg/logger"
	"github.com/okian/golfr/pkg/metrics"
)

// Profile is a user profile with its derived statistics.
type Profile struct {
	model.UserProfile
	DisplayAverage  int      `json:"display_average"`
	HandicapDisplay string   `json:"handicap_display"`
	HandicapIndex   *float64 `json:"handicap_index,omitempty"`
}

// Profile loads a profile and recomputes its stats from every stored
// round.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	p, err := s.store.Profile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	rounds, err := s.store.RoundsByUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	courses, err := s.courses(ctx)
	if err != nil {
		return Profile{}, err
	}

	summary := stats.Aggregate(rounds)
	metrics.RecordStatsComputation()
	p.Stats = summary.Model()

	out := Profile{
		UserProfile:     p,
		DisplayAverage:  summary.DisplayAverage(),
		HandicapDisplay: stats.FormatHandicap(p.Handicap),
	}
	if index, ok := stats.HandicapIndex(rounds, courses); ok {
		out.HandicapIndex = &index
	}
	return out, nil
}

// UpdateProfile creates or replaces the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, p model.UserProfile) error {
	if p.ID == "" || p.Username == "" {
		return fmt.Errorf("%w: profile needs id and username", ErrInvalidInput)
	}
	return s.store.UpsertProfile(ctx, p)
}

// Rounds returns the user's rounds, most recently played first.
func (s *Service) Rounds(ctx context.Context, userID string) ([]model.Round, error) {
	return s.store.RoundsByUser(ctx, userID)
}

// TrendPoint is one score on the analytics timeline.
type TrendPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// Analytics is the per-course view of a user's rounds.
type Analytics struct {
	Course         string        `json:"course"`
	Courses        []string      `json:"courses"`
	Stats          model.Stats   `json:"stats"`
	DisplayAverage int           `json:"display_average"`
	Trend          []TrendPoint  `json:"trend"`
	Rounds         []model.Round `json:"rounds"`
}

// Analytics filters the user's rounds to one course. An empty course or
// stats.AllCourses keeps everything.
func (s *Service) Analytics(ctx context.Context, userID, course string) (Analytics, error) {
	rounds, err := s.store.RoundsByUser(ctx, userID)
	if err != nil {
		return Analytics{}, err
	}
	if course == "" {
		course = stats.AllCourses
	}
	selected := stats.ForCourse(rounds, course)
	summary := stats.Aggregate(selected)
	metrics.RecordStatsComputation()

	trend := make([]TrendPoint, len(selected))
	for i, r := range selected {
		trend[i] = TrendPoint{Date: r.PlayedOn.Format(model.DateLayout), Score: r.Score}
	}
	sort.SliceStable(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })

	return Analytics{
		Course:         course,
		Courses:        append([]string{stats.AllCourses}, stats.CourseNames(rounds)...),
		Stats:          summary.Model(),
		DisplayAverage: summary.DisplayAverage(),
		Trend:          trend,
		Rounds:         selected,
	}, nil
}

// SearchCourses filters the catalog.
func (s *Service) SearchCourses(ctx context.Context, q catalog.Query) ([]model.Course, error) {
	courses, err := s.courses(ctx)
	if err != nil {
		return nil, err
	}
	out := catalog.Filter(courses, q)
	metrics.RecordCourseSearch(len(out))
	return out, nil
}

// SubmitRound stores a completed round. A non-empty idempotency key makes
// repeated submissions return the round stored by the first one;
// duplicate reports that case.
func (s *Service) SubmitRound(ctx context.Context, key string, r model.Round) (round model.Round, duplicate bool, err error) { //nolint:gocritic // hugeParam: Round is a value type at the API boundary
	if key != "" {
		id, claimed := s.tracker.Claim(ctx, key)
		if !claimed {
			metrics.RecordRoundDuplicate()
			if id == "" {
				return model.Round{}, true, ErrInFlight
			}
			stored, err := s.store.Round(ctx, id)
			return stored, true, err
		}
		defer func() {
			if err != nil {
				s.tracker.Release(ctx, key)
				return
			}
			s.tracker.Complete(ctx, key, round.ID)
		}()
	}

	if r.CourseID != "" {
		courses, err := s.courses(ctx)
		if err != nil {
			return model.Round{}, false, err
		}
		if c, ok := catalog.Find(courses, r.CourseID); ok {
			r.CourseID, r.CourseName = c.ID, c.Name
		}
	}
	if r.PlayedOn.IsZero() {
		now := s.now().UTC()
		r.PlayedOn = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	round, err = s.persistRound(ctx, r)
	return round, false, err
}

// persistRound stores r and schedules the leaderboard update.
func (s *Service) persistRound(ctx context.Context, r model.Round) (model.Round, error) { //nolint:gocritic // hugeParam: Round is a value type at the API boundary
	stored, err := s.store.SaveRound(ctx, r)
	if err != nil {
		metrics.RecordRoundSubmitError()
		return model.Round{}, err
	}
	metrics.RecordRoundSubmitted()

	e := model.Event{
		Kind:    model.EventRoundSubmitted,
		UserID:  stored.UserID,
		RoundID: stored.ID,
		Score:   stored.Score,
		Holes:   stored.HoleCount(),
		TS:      s.now(),
	}
	if err := s.enqueue(ctx, e); err != nil {
		// The round is stored; the next rebuild picks it up.
		s.logger.Warn(ctx, "leaderboard update not queued",
			logger.String("round_id", stored.ID),
			logger.Error(err),
		)
	}
	return stored, nil
}

// StartEntry opens a round-entry session for userID.
func (s *Service) StartEntry(ctx context.Context, userID string) (string, entry.View, error) {
	if userID == "" {
		return "", entry.View{}, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	f := entry.New(userID, entry.PersistFunc(s.persistRound), entry.WithClock(s.now))
	id := s.sessions.Add(f)
	metrics.UpdateEntrySessions(s.sessions.Len())
	metrics.RecordEntryTransition(f.State().String())
	return id, f.View(), nil
}

// Entry returns the current view of a session.
func (s *Service) Entry(ctx context.Context, id string) (entry.View, error) {
	var v entry.View
	err := s.sessions.Do(id, func(f *entry.Flow) error {
		v = f.View()
		return nil
	})
	return v, err
}

// EntryCommand is a wizard input as received from clients. Course is an
// id or a name; PlayedOn uses model.DateLayout.
type EntryCommand struct {
	Kind     entry.ActionKind `json:"kind"`
	Course   string           `json:"course,omitempty"`
	Holes    int              `json:"holes,omitempty"`
	PlayedOn string           `json:"date_played,omitempty"`
	Notes    string           `json:"notes,omitempty"`
	Hole     int              `json:"hole,omitempty"`
}

// EntryResult is the outcome of one wizard input. Round is set once the
// round has been submitted.
type EntryResult struct {
	View  entry.View   `json:"entry"`
	Round *model.Round `json:"round,omitempty"`
}

// ApplyEntryAction resolves cmd and applies it to session id. When a
// submit fails the returned view carries the error and the session stays
// in review.
func (s *Service) ApplyEntryAction(ctx context.Context, id string, cmd EntryCommand) (EntryResult, error) {
	a := entry.Action{Kind: cmd.Kind, Holes: cmd.Holes, Notes: cmd.Notes, Hole: cmd.Hole}
	switch cmd.Kind {
	case entry.ActionSelectCourse:
		courses, err := s.courses(ctx)
		if err != nil {
			return EntryResult{}, err
		}
		c, ok := catalog.Find(courses, cmd.Course)
		if !ok {
			return EntryResult{}, fmt.Errorf("%w: %q", ErrUnknownCourse, cmd.Course)
		}
		a.Course = c
	case entry.ActionSetDate:
		t, err := time.Parse(model.DateLayout, cmd.PlayedOn)
		if err != nil {
			return EntryResult{}, fmt.Errorf("%w: date_played %q", ErrInvalidInput, cmd.PlayedOn)
		}
		a.PlayedOn = t
	}

	var res EntryResult
	err := s.sessions.Do(id, func(f *entry.Flow) error {
		round, err := f.Apply(ctx, a)
		res.View = f.View()
		if err != nil {
			return err
		}
		if f.State() == entry.Submitted {
			res.Round = &round
		}
		return nil
	})
	if errors.Is(err, entry.ErrSessionNotFound) {
		return EntryResult{}, err
	}
	metrics.UpdateEntrySessions(s.sessions.Len())
	if res.View.State != "" {
		metrics.RecordEntryTransition(res.View.State)
	}
	return res, err
}
