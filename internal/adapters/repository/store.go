// Package repository maps backend rows to domain types and keeps the
// in-memory best-round leaderboard.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/golfr/internal/adapters/backend"
	"github.com/okian/golfr/internal/domain/model"
)

// UnknownCourse names a round whose course cannot be resolved.
const UnknownCourse = "Unknown Course"

// Store is the typed repository over a backend.Backend.
type Store struct {
	b     backend.Backend
	now   func() time.Time
	newID func() string
}

// NewStore creates a repository over b.
func NewStore(b backend.Backend, opts ...StoreOption) *Store {
	s := &Store{
		b:     b,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(backend.TimeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(backend.TimeLayout, v)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, v)
	}
	return t
}

// SaveRound validates r and stores it with its hole scores atomically.
// Missing id and created-at are assigned.
func (s *Store) SaveRound(ctx context.Context, r model.Round) (model.Round, error) {
	if err := r.Validate(); err != nil {
		return model.Round{}, err
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if r.PlayedOn.IsZero() {
		r.PlayedOn = r.CreatedAt
	}

	row := backend.Row{
		"id":          r.ID,
		"user_id":     r.UserID,
		"score":       r.Score,
		"date_played": r.PlayedOn.Format(model.DateLayout),
		"created_at":  r.CreatedAt.UTC().Format(backend.TimeLayout),
	}
	if r.CourseID != "" {
		row["course_id"] = r.CourseID
	}
	if r.Notes != "" {
		row["notes"] = r.Notes
	}
	writes := make([]backend.Write, 0, 1+len(r.Holes))
	writes = append(writes, backend.Write{Table: backend.Rounds, Row: row})
	for _, h := range r.Holes {
		writes = append(writes, backend.Write{Table: backend.HoleScores, Row: backend.Row{
			"id":          r.ID + "-" + strconv.Itoa(h.Number),
			"round_id":    r.ID,
			"hole_number": h.Number,
			"par":         h.Par,
			"score":       h.Strokes,
		}})
	}
	if err := s.b.Insert(ctx, writes...); err != nil {
		return model.Round{}, fmt.Errorf("save round %s: %w", r.ID, err)
	}
	return r, nil
}

// RoundsByUser returns the user's rounds, most recently played first.
func (s *Store) RoundsByUser(ctx context.Context, userID string) ([]model.Round, error) {
	rows, err := s.b.Select(ctx, backend.Rounds, backend.Query{
		Where:   map[string]any{"user_id": userID},
		OrderBy: "date_played",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("rounds of %s: %w", userID, err)
	}
	return s.hydrate(ctx, rows)
}

// Round loads one round by id.
func (s *Store) Round(ctx context.Context, id string) (model.Round, error) {
	rows, err := s.b.Select(ctx, backend.Rounds, backend.Query{Where: map[string]any{"id": id}})
	if err != nil {
		return model.Round{}, fmt.Errorf("round %s: %w", id, err)
	}
	if len(rows) == 0 {
		return model.Round{}, fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	rounds, err := s.hydrate(ctx, rows)
	if err != nil {
		return model.Round{}, err
	}
	return rounds[0], nil
}

// AllRounds returns the newest rounds across users. limit <= 0 returns all.
func (s *Store) AllRounds(ctx context.Context, limit int) ([]model.Round, error) {
	rows, err := s.b.Select(ctx, backend.Rounds, backend.Query{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("all rounds: %w", err)
	}
	return s.hydrate(ctx, rows)
}

// RoundsByUsers returns the newest rounds of the given users.
func (s *Store) RoundsByUsers(ctx context.Context, userIDs []string, limit int) ([]model.Round, error) {
	rows, err := s.b.Select(ctx, backend.Rounds, backend.Query{
		In:      map[string][]any{"user_id": toAny(userIDs)},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("rounds of %d users: %w", len(userIDs), err)
	}
	return s.hydrate(ctx, rows)
}

// hydrate joins hole scores and course names onto round rows.
func (s *Store) hydrate(ctx context.Context, rows []backend.Row) ([]model.Round, error) {
	if len(rows) == 0 {
		return []model.Round{}, nil
	}
	roundIDs := make([]string, 0, len(rows))
	courseIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		roundIDs = append(roundIDs, r.String("id"))
		if c := r.String("course_id"); c != "" {
			courseIDs = append(courseIDs, c)
		}
	}

	holeRows, err := s.b.Select(ctx, backend.HoleScores, backend.Query{
		In:      map[string][]any{"round_id": toAny(roundIDs)},
		OrderBy: "hole_number",
	})
	if err != nil {
		return nil, fmt.Errorf("hole scores: %w", err)
	}
	holes := make(map[string][]model.HoleEntry, len(rows))
	for _, h := range holeRows {
		id := h.String("round_id")
		holes[id] = append(holes[id], model.HoleEntry{
			Number:  h.Int("hole_number"),
			Par:     h.Int("par"),
			Strokes: h.Int("score"),
		})
	}

	names := make(map[string]string, len(courseIDs))
	if len(courseIDs) > 0 {
		courseRows, err := s.b.Select(ctx, backend.GolfCourses, backend.Query{
			In: map[string][]any{"id": toAny(courseIDs)},
		})
		if err != nil {
			return nil, fmt.Errorf("course join: %w", err)
		}
		for _, c := range courseRows {
			names[c.String("id")] = c.String("name")
		}
	}

	out := make([]model.Round, 0, len(rows))
	for _, r := range rows {
		id := r.String("id")
		name, ok := names[r.String("course_id")]
		if !ok || name == "" {
			name = UnknownCourse
		}
		played, _ := time.Parse(model.DateLayout, r.String("date_played"))
		out = append(out, model.Round{
			ID:         id,
			UserID:     r.String("user_id"),
			CourseID:   r.String("course_id"),
			CourseName: name,
			PlayedOn:   played,
			Score:      r.Int("score"),
			Holes:      holes[id],
			Notes:      r.String("notes"),
			CreatedAt:  parseTime(r.String("created_at")),
		})
	}
	return out, nil
}

// Profile loads a profile with its follow counts. A missing handicap
// reads as 0.
func (s *Store) Profile(ctx context.Context, id string) (model.UserProfile, error) {
	rows, err := s.b.Select(ctx, backend.Profiles, backend.Query{Where: map[string]any{"id": id}})
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("profile %s: %w", id, err)
	}
	if len(rows) == 0 {
		return model.UserProfile{}, fmt.Errorf("%w: profile %s", ErrNotFound, id)
	}
	p := profileFromRow(rows[0])
	p.FollowerCount, p.FollowingCount, err = s.FollowCounts(ctx, id)
	if err != nil {
		return model.UserProfile{}, err
	}
	return p, nil
}

func profileFromRow(row backend.Row) model.UserProfile {
	handicap, _ := row.Float("handicap")
	p := model.UserProfile{
		ID:          row.String("id"),
		Username:    row.String("username"),
		DisplayName: row.String("full_name"),
		Bio:         row.String("bio"),
		Handicap:    handicap,
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Username
	}
	return p
}

// UpsertProfile creates the profile or updates its editable fields.
func (s *Store) UpsertProfile(ctx context.Context, p model.UserProfile) error {
	patch := backend.Row{
		"username":   p.Username,
		"full_name":  p.DisplayName,
		"bio":        p.Bio,
		"handicap":   p.Handicap,
		"updated_at": s.stamp(),
	}
	err := s.b.Update(ctx, backend.Profiles, p.ID, patch)
	if err == nil {
		return nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("update profile %s: %w", p.ID, err)
	}
	patch["id"] = p.ID
	patch["created_at"] = patch["updated_at"]
	if err := s.b.Insert(ctx, backend.Write{Table: backend.Profiles, Row: patch}); err != nil {
		return fmt.Errorf("insert profile %s: %w", p.ID, err)
	}
	return nil
}

// UpdateHandicap stores a new handicap.
func (s *Store) UpdateHandicap(ctx context.Context, id string, handicap float64) error {
	err := s.b.Update(ctx, backend.Profiles, id, backend.Row{"handicap": handicap, "updated_at": s.stamp()})
	if errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("%w: profile %s", ErrNotFound, id)
	}
	return err
}

func followID(follower, following string) string {
	return follower + ":" + following
}

// Follow records follower following target. Returns false when the edge
// already existed.
func (s *Store) Follow(ctx context.Context, follower, target string) (bool, error) {
	if follower == target {
		return false, ErrSelfFollow
	}
	err := s.b.Insert(ctx, backend.Write{Table: backend.Follows, Row: backend.Row{
		"id":           followID(follower, target),
		"follower_id":  follower,
		"following_id": target,
		"created_at":   s.stamp(),
	}})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, backend.ErrDuplicate):
		return false, nil
	default:
		return false, fmt.Errorf("follow %s: %w", target, err)
	}
}

// Unfollow removes the edge. Returns false when it did not exist.
func (s *Store) Unfollow(ctx context.Context, follower, target string) (bool, error) {
	n, err := s.b.Delete(ctx, backend.Follows, backend.Query{Where: map[string]any{"id": followID(follower, target)}})
	if err != nil {
		return false, fmt.Errorf("unfollow %s: %w", target, err)
	}
	return n > 0, nil
}

// FollowCounts returns how many users follow id and how many id follows.
func (s *Store) FollowCounts(ctx context.Context, id string) (followers, following int, err error) {
	in, err := s.b.Select(ctx, backend.Follows, backend.Query{Where: map[string]any{"following_id": id}})
	if err != nil {
		return 0, 0, fmt.Errorf("followers of %s: %w", id, err)
	}
	out, err := s.b.Select(ctx, backend.Follows, backend.Query{Where: map[string]any{"follower_id": id}})
	if err != nil {
		return 0, 0, fmt.Errorf("following of %s: %w", id, err)
	}
	return len(in), len(out), nil
}

// Following lists the ids id follows.
func (s *Store) Following(ctx context.Context, id string) ([]string, error) {
	rows, err := s.b.Select(ctx, backend.Follows, backend.Query{
		Where:   map[string]any{"follower_id": id},
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, fmt.Errorf("following of %s: %w", id, err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.String("following_id")
	}
	return ids, nil
}

// Courses returns the stored catalog in the order it was seeded.
func (s *Store) Courses(ctx context.Context) ([]model.Course, error) {
	rows, err := s.b.Select(ctx, backend.GolfCourses, backend.Query{OrderBy: "seq"})
	if err != nil {
		return nil, fmt.Errorf("courses: %w", err)
	}
	out := make([]model.Course, len(rows))
	for i, r := range rows {
		rating, _ := r.Float("course_rating")
		difficulty, _ := r.Float("difficulty")
		out[i] = model.Course{
			ID:              r.String("id"),
			Name:            r.String("name"),
			Location:        joinLocation(r.String("city"), r.String("state")),
			Holes:           r.Int("holes"),
			Difficulty:      difficulty,
			HasDrivingRange: r.Bool("has_driving_range"),
			HasPuttingGreen: r.Bool("has_putting_green"),
			Par:             r.Int("par"),
			Rating:          rating,
			Slope:           r.Int("slope"),
		}
	}
	return out, nil
}

// SeedCourses stores the courses not yet present and returns how many
// were added.
func (s *Store) SeedCourses(ctx context.Context, courses []model.Course) (int, error) {
	added := 0
	for i, c := range courses {
		city, state := splitLocation(c.Location)
		row := backend.Row{
			"id":                c.ID,
			"seq":               i,
			"name":              c.Name,
			"city":              city,
			"state":             state,
			"holes":             c.Holes,
			"difficulty":        c.Difficulty,
			"has_driving_range": c.HasDrivingRange,
			"has_putting_green": c.HasPuttingGreen,
		}
		if c.Par > 0 {
			row["par"] = c.Par
		}
		if c.Rated() {
			row["course_rating"] = c.Rating
			row["slope"] = c.Slope
		}
		err := s.b.Insert(ctx, backend.Write{Table: backend.GolfCourses, Row: row})
		switch {
		case err == nil:
			added++
		case errors.Is(err, backend.ErrDuplicate):
		default:
			return added, fmt.Errorf("seed course %s: %w", c.ID, err)
		}
	}
	return added, nil
}

func likeID(userID, roundID string) string {
	return userID + ":" + roundID
}

// ToggleLike stores or removes the like of userID on roundID so that the
// stored state equals liked. Repeating a call is harmless.
func (s *Store) ToggleLike(ctx context.Context, userID, roundID string, liked bool) error {
	if !liked {
		_, err := s.b.Delete(ctx, backend.Likes, backend.Query{Where: map[string]any{"id": likeID(userID, roundID)}})
		if err != nil {
			return fmt.Errorf("unlike %s: %w", roundID, err)
		}
		return nil
	}
	err := s.b.Insert(ctx, backend.Write{Table: backend.Likes, Row: backend.Row{
		"id":         likeID(userID, roundID),
		"user_id":    userID,
		"round_id":   roundID,
		"created_at": s.stamp(),
	}})
	if err != nil && !errors.Is(err, backend.ErrDuplicate) {
		return fmt.Errorf("like %s: %w", roundID, err)
	}
	return nil
}

// LikeCounts returns like counts per round and which of them viewer liked.
func (s *Store) LikeCounts(ctx context.Context, roundIDs []string, viewer string) (map[string]int, map[string]bool, error) {
	counts := make(map[string]int, len(roundIDs))
	liked := make(map[string]bool)
	if len(roundIDs) == 0 {
		return counts, liked, nil
	}
	rows, err := s.b.Select(ctx, backend.Likes, backend.Query{In: map[string][]any{"round_id": toAny(roundIDs)}})
	if err != nil {
		return nil, nil, fmt.Errorf("likes: %w", err)
	}
	for _, r := range rows {
		id := r.String("round_id")
		counts[id]++
		if viewer != "" && r.String("user_id") == viewer {
			liked[id] = true
		}
	}
	return counts, liked, nil
}

// AddComment stores a comment with a fresh id and timestamp.
func (s *Store) AddComment(ctx context.Context, c model.Comment) (model.Comment, error) {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" || c.UserID == "" || c.RoundID == "" {
		return model.Comment{}, fmt.Errorf("%w: needs user, round and content", ErrInvalidComment)
	}
	c.ID = s.newID()
	c.CreatedAt = s.now().UTC()
	err := s.b.Insert(ctx, backend.Write{Table: backend.Comments, Row: backend.Row{
		"id":         c.ID,
		"user_id":    c.UserID,
		"round_id":   c.RoundID,
		"content":    c.Content,
		"created_at": c.CreatedAt.Format(backend.TimeLayout),
	}})
	if err != nil {
		return model.Comment{}, fmt.Errorf("comment on %s: %w", c.RoundID, err)
	}
	return c, nil
}

// Comments lists the comments on a round, oldest first.
func (s *Store) Comments(ctx context.Context, roundID string) ([]model.Comment, error) {
	rows, err := s.b.Select(ctx, backend.Comments, backend.Query{
		Where:   map[string]any{"round_id": roundID},
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, fmt.Errorf("comments on %s: %w", roundID, err)
	}
	out := make([]model.Comment, len(rows))
	for i, r := range rows {
		out[i] = model.Comment{
			ID:        r.String("id"),
			UserID:    r.String("user_id"),
			RoundID:   r.String("round_id"),
			Content:   r.String("content"),
			CreatedAt: parseTime(r.String("created_at")),
		}
	}
	return out, nil
}

// CommentCounts returns comment counts per round.
func (s *Store) CommentCounts(ctx context.Context, roundIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(roundIDs))
	if len(roundIDs) == 0 {
		return counts, nil
	}
	rows, err := s.b.Select(ctx, backend.Comments, backend.Query{In: map[string][]any{"round_id": toAny(roundIDs)}})
	if err != nil {
		return nil, fmt.Errorf("comments: %w", err)
	}
	for _, r := range rows {
		counts[r.String("round_id")]++
	}
	return counts, nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// splitLocation splits "Goleta, CA" into city and state.
func splitLocation(loc string) (string, string) {
	i := strings.LastIndex(loc, ", ")
	if i < 0 {
		return loc, ""
	}
	return loc[:i], loc[i+2:]
}

func joinLocation(city, state string) string {
	if state == "" {
		return city
	}
	return city + ", " + state
}
