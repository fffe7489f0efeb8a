package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/golfr/internal/adapters/backend"
	"github.com/okian/golfr/internal/domain/model"
)

const tagSeparator = ","

// AddPost stores a free-text post with a fresh id and timestamp. Tags are
// taken from the content.
func (s *Store) AddPost(ctx context.Context, userID, content string) (model.TextPost, error) {
	content = strings.TrimSpace(content)
	if userID == "" || content == "" {
		return model.TextPost{}, fmt.Errorf("%w: needs user and content", ErrInvalidPost)
	}
	p := model.TextPost{
		ID:        s.newID(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	p.TaggedUsers, p.TaggedCourses = model.ParseTags(content)
	err := s.b.Insert(ctx, backend.Write{Table: backend.Posts, Row: backend.Row{
		"id":             p.ID,
		"user_id":        p.UserID,
		"content":        p.Content,
		"tagged_users":   strings.Join(p.TaggedUsers, tagSeparator),
		"tagged_courses": strings.Join(p.TaggedCourses, tagSeparator),
		"created_at":     p.CreatedAt.Format(backend.TimeLayout),
	}})
	if err != nil {
		return model.TextPost{}, fmt.Errorf("post by %s: %w", userID, err)
	}
	return p, nil
}

// Post loads one post.
func (s *Store) Post(ctx context.Context, id string) (model.TextPost, error) {
	rows, err := s.b.Select(ctx, backend.Posts, backend.Query{Where: map[string]any{"id": id}})
	if err != nil {
		return model.TextPost{}, fmt.Errorf("post %s: %w", id, err)
	}
	if len(rows) == 0 {
		return model.TextPost{}, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	return postFromRow(rows[0]), nil
}

// Posts returns the newest posts of userIDs, or of everyone when userIDs
// is empty.
func (s *Store) Posts(ctx context.Context, userIDs []string, limit int) ([]model.TextPost, error) {
	q := backend.Query{OrderBy: "created_at", Desc: true, Limit: limit}
	if len(userIDs) > 0 {
		q.In = map[string][]any{"user_id": toAny(userIDs)}
	}
	rows, err := s.b.Select(ctx, backend.Posts, q)
	if err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}
	out := make([]model.TextPost, len(rows))
	for i, r := range rows {
		out[i] = postFromRow(r)
	}
	return out, nil
}

func postFromRow(r backend.Row) model.TextPost {
	return model.TextPost{
		ID:            r.String("id"),
		UserID:        r.String("user_id"),
		Content:       r.String("content"),
		TaggedUsers:   splitTags(r.String("tagged_users")),
		TaggedCourses: splitTags(r.String("tagged_courses")),
		CreatedAt:     parseTime(r.String("created_at")),
	}
}

func splitTags(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, tagSeparator)
}

// SearchProfiles returns profiles whose display name or username contains
// term, ignoring case, oldest account first. An empty term matches every
// profile. Follow counts are not loaded.
func (s *Store) SearchProfiles(ctx context.Context, term string, limit int) ([]model.UserProfile, error) {
	rows, err := s.b.Select(ctx, backend.Profiles, backend.Query{OrderBy: "created_at"})
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	term = strings.ToLower(strings.TrimSpace(term))
	var out []model.UserProfile
	for _, r := range rows {
		p := profileFromRow(r)
		if term != "" &&
			!strings.Contains(strings.ToLower(p.DisplayName), term) &&
			!strings.Contains(strings.ToLower(p.Username), term) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func rankingID(userID, courseID string) string {
	return userID + ":" + courseID
}

// SetCourseRankings replaces userID's course ranking with courseIDs, best
// first. An empty list clears it.
func (s *Store) SetCourseRankings(ctx context.Context, userID string, courseIDs []string) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidRanking)
	}
	writes := make([]backend.Write, len(courseIDs))
	seen := make(map[string]struct{}, len(courseIDs))
	for i, id := range courseIDs {
		if _, dup := seen[id]; dup || id == "" {
			return fmt.Errorf("%w: course %q listed twice or blank", ErrInvalidRanking, id)
		}
		seen[id] = struct{}{}
		writes[i] = backend.Write{Table: backend.Rankings, Row: backend.Row{
			"id":        rankingID(userID, id),
			"user_id":   userID,
			"course_id": id,
			"place":     i + 1,
		}}
	}

	if _, err := s.b.Delete(ctx, backend.Rankings, backend.Query{Where: map[string]any{"user_id": userID}}); err != nil {
		return fmt.Errorf("clear rankings of %s: %w", userID, err)
	}
	if len(writes) == 0 {
		return nil
	}
	if err := s.b.Insert(ctx, writes...); err != nil {
		return fmt.Errorf("rankings of %s: %w", userID, err)
	}
	return nil
}

// CourseRankings returns userID's stored course ranking, best first.
// Courses missing from the catalog read as UnknownCourse.
func (s *Store) CourseRankings(ctx context.Context, userID string) ([]model.CourseRanking, error) {
	rows, err := s.b.Select(ctx, backend.Rankings, backend.Query{
		Where:   map[string]any{"user_id": userID},
		OrderBy: "place",
	})
	if err != nil {
		return nil, fmt.Errorf("rankings of %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	courses, err := s.Courses(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	out := make([]model.CourseRanking, len(rows))
	for i, r := range rows {
		id := r.String("course_id")
		c, ok := byID[id]
		if !ok {
			c.Name = UnknownCourse
		}
		out[i] = model.CourseRanking{Rank: r.Int("place"), CourseID: id, Name: c.Name, Location: c.Location}
	}
	return out, nil
}
