package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/internal/domain/stats"
	"github.com/okian/golfr/pkg/logger"
	"github.com/okian/golfr/pkg/metrics"
)

// Follow makes follower follow target. followed is false when the edge
// already existed.
func (s *Service) Follow(ctx context.Context, follower, target string) (followed bool, err error) {
	if follower == "" || target == "" {
		return false, fmt.Errorf("%w: follower and target are required", ErrInvalidInput)
	}
	return s.store.Follow(ctx, follower, target)
}

// Unfollow removes the follow edge if present.
func (s *Service) Unfollow(ctx context.Context, follower, target string) (bool, error) {
	return s.store.Unfollow(ctx, follower, target)
}

// Feed returns the newest posts for viewer, rounds and free-text posts
// merged: those by the people viewer follows and viewer's own, or
// everyone's when viewer follows no one. limit <= 0 uses the configured
// default.
func (s *Service) Feed(ctx context.Context, viewer string, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = s.feedLimit
	}

	var authors []string
	if viewer != "" {
		following, err := s.store.Following(ctx, viewer)
		if err != nil {
			return nil, err
		}
		if len(following) > 0 {
			authors = append(following, viewer)
		}
	}

	var (
		rounds []model.Round
		err    error
	)
	if len(authors) > 0 {
		rounds, err = s.store.RoundsByUsers(ctx, authors, limit)
	} else {
		rounds, err = s.store.AllRounds(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	texts, err := s.store.Posts(ctx, authors, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rounds)+len(texts))
	for _, r := range rounds {
		ids = append(ids, r.ID)
	}
	for _, p := range texts {
		ids = append(ids, p.ID)
	}
	likes, liked, err := s.store.LikeCounts(ctx, ids, viewer)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	now := s.now()
	posts := make([]model.Post, 0, len(ids))
	for _, r := range rounds {
		count, isLiked := s.overlay(viewer, r.ID, likes[r.ID], liked[r.ID])
		posts = append(posts, model.Post{
			ID:       r.ID,
			Kind:     model.PostRound,
			UserID:   r.UserID,
			Round:    &r,
			Author:   s.authorName(ctx, names, r.UserID),
			Caption:  caption(r),
			Posted:   r.CreatedAt,
			Age:      humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			Likes:    count,
			Comments: comments[r.ID],
			IsLiked:  isLiked,
		})
	}
	for _, p := range texts {
		count, isLiked := s.overlay(viewer, p.ID, likes[p.ID], liked[p.ID])
		posts = append(posts, model.Post{
			ID:            p.ID,
			Kind:          model.PostText,
			UserID:        p.UserID,
			Author:        s.authorName(ctx, names, p.UserID),
			Caption:       p.Content,
			Posted:        p.CreatedAt,
			Age:           humanize.RelTime(p.CreatedAt, now, "ago", "from now"),
			Likes:         count,
			Comments:      comments[p.ID],
			IsLiked:       isLiked,
			TaggedUsers:   p.TaggedUsers,
			TaggedCourses: p.TaggedCourses,
		})
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Posted.After(posts[j].Posted) })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *Service) authorName(ctx context.Context, cache map[string]string, userID string) string {
	if name, ok := cache[userID]; ok {
		return name
	}
	name := userID
	if p, err := s.store.Profile(ctx, userID); err == nil && p.DisplayName != "" {
		name = p.DisplayName
	}
	cache[userID] = name
	return name
}

func caption(r model.Round) string { //nolint:gocritic // hugeParam: Round is a value type at the API boundary
	if r.Notes != "" {
		return r.Notes
	}
	if len(r.Holes) > 0 {
		return fmt.Sprintf("Shot %d (%s) at %s", r.Score, stats.ScoreToPar(r.Score, r.Par()), r.CourseName)
	}
	return fmt.Sprintf("Shot %d at %s", r.Score, r.CourseName)
}

// overlay applies viewer's unconfirmed like on roundID to the stored
// count and flag.
func (s *Service) overlay(viewer, roundID string, count int, liked bool) (int, bool) {
	if viewer == "" {
		return count, liked
	}
	s.likesMu.Lock()
	want, ok := s.pending[likeKey{viewer, roundID}]
	s.likesMu.Unlock()
	if !ok || want == liked {
		return count, liked
	}
	if want {
		return count + 1, true
	}
	return max(count-1, 0), false
}

// LikeState is the state of a like after a toggle.
type LikeState struct {
	RoundID string `json:"round_id"`
	Liked   bool   `json:"liked"`
	Likes   int    `json:"likes"`
}

// ToggleLike flips userID's like on roundID, a round or a post. The new
// state is applied locally and returned at once; the backend write runs on
// a worker and a failed write is logged, never rolled back.
func (s *Service) ToggleLike(ctx context.Context, userID, roundID string) (LikeState, error) {
	if userID == "" {
		return LikeState{}, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	if err := s.feedItem(ctx, roundID); err != nil {
		return LikeState{}, err
	}

	// The stripe keeps a write from confirming between the read and the flip.
	key := likeKey{userID, roundID}
	stripe := &s.likeLocks[key.stripe()]
	stripe.Lock()
	counts, liked, err := s.store.LikeCounts(ctx, []string{roundID}, userID)
	if err != nil {
		stripe.Unlock()
		return LikeState{}, err
	}
	s.likesMu.Lock()
	current, ok := s.pending[key]
	if !ok {
		current = liked[roundID]
	}
	next := !current
	s.pending[key] = next
	s.likesMu.Unlock()
	count, _ := s.overlay(userID, roundID, counts[roundID], liked[roundID])
	stripe.Unlock()

	metrics.RecordLikeToggled()

	e := model.Event{Kind: model.EventLikeToggled, UserID: userID, RoundID: roundID, Liked: next, TS: s.now()}
	if err := s.enqueue(ctx, e); err != nil {
		metrics.RecordLikeWriteError()
		s.logger.Warn(ctx, "like write not applied",
			logger.String("user_id", userID),
			logger.String("round_id", roundID),
			logger.Error(err),
		)
	}
	return LikeState{RoundID: roundID, Liked: next, Likes: count}, nil
}

// confirmLike drops the local override once the backend holds liked.
func (s *Service) confirmLike(userID, roundID string, liked bool) {
	s.likesMu.Lock()
	defer s.likesMu.Unlock()
	key := likeKey{userID, roundID}
	if want, ok := s.pending[key]; ok && want == liked {
		delete(s.pending, key)
	}
}

// Comment adds a comment to a round or a post.
func (s *Service) Comment(ctx context.Context, userID, roundID, content string) (model.Comment, error) {
	if err := s.feedItem(ctx, roundID); err != nil {
		return model.Comment{}, err
	}
	return s.store.AddComment(ctx, model.Comment{UserID: userID, RoundID: roundID, Content: content})
}

// Comments lists the comments on a round or post, oldest first.
func (s *Service) Comments(ctx context.Context, roundID string) ([]model.Comment, error) {
	return s.store.Comments(ctx, roundID)
}
