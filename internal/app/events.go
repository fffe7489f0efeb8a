package service

import (
	"context"
	"fmt"

	"github.com/okian/golfr/internal/adapters/repository"
	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/pkg/logger"
	"github.com/okian/golfr/pkg/metrics"
)

// leaderboardHoles is the round length that qualifies for the leaderboard.
const leaderboardHoles = 18

// HandleEvent applies one pipeline event. It runs on the worker pool, or
// inline when the service is not started.
func (s *Service) HandleEvent(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	switch e.Kind {
	case model.EventRoundSubmitted:
		if e.Holes != leaderboardHoles {
			return nil
		}
		return s.updateBest(ctx, bestUpdate{userID: e.UserID, roundID: e.RoundID, score: e.Score})

	case model.EventLikeToggled:
		return s.writeLike(ctx, e.UserID, e.RoundID)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Kind)
	}
}

// writeLike stores the latest local state of userID's like on roundID.
// Events for one key may run on different workers, so the value written is
// the pending one, read and written under the key's stripe. A key with no
// pending entry was already confirmed by a later event.
func (s *Service) writeLike(ctx context.Context, userID, roundID string) error {
	key := likeKey{userID, roundID}
	mu := &s.likeLocks[key.stripe()]
	mu.Lock()
	defer mu.Unlock()

	s.likesMu.Lock()
	liked, ok := s.pending[key]
	s.likesMu.Unlock()
	if !ok {
		return nil
	}

	if err := s.store.ToggleLike(ctx, userID, roundID, liked); err != nil {
		metrics.RecordLikeWriteError()
		s.logger.Error(ctx, "like write failed",
			logger.String("user_id", userID),
			logger.String("round_id", roundID),
			logger.Bool("liked", liked),
			logger.Error(err),
		)
		return err
	}
	s.confirmLike(userID, roundID, liked)
	return nil
}

// Leaderboard returns the best 18-hole rounds, lowest first.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return s.board().TopN(ctx, limit)
}

// Rank returns userID's leaderboard position.
func (s *Service) Rank(ctx context.Context, userID string) (model.LeaderboardEntry, error) {
	return s.board().Rank(ctx, userID)
}

// updateBest applies u to the live board, and records it for the rebuild
// in progress if there is one.
func (s *Service) updateBest(ctx context.Context, u bestUpdate) error {
	s.rebuildMu.Lock()
	if s.rebuilding {
		s.replay = append(s.replay, u)
	}
	board := s.board()
	s.rebuildMu.Unlock()

	_, err := board.UpdateBest(ctx, u.userID, u.score, u.roundID)
	return err
}

// RebuildLeaderboard recomputes the leaderboard from stored rounds and
// swaps it in. Updates that arrive while storage is read are replayed
// onto the new board first. Concurrent calls run one at a time. It returns
// the number of ranked players.
func (s *Service) RebuildLeaderboard(ctx context.Context) (int, error) {
	s.rebuildRun.Lock()
	defer s.rebuildRun.Unlock()

	s.rebuildMu.Lock()
	s.rebuilding = true
	s.replay = nil
	s.rebuildMu.Unlock()

	board, err := s.buildLeaderboard(ctx)

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	replay := s.replay
	s.rebuilding = false
	s.replay = nil
	if err != nil {
		metrics.RecordErrorByComponent("leaderboard", "rebuild")
		return 0, err
	}
	for _, u := range replay {
		if _, err := board.UpdateBest(ctx, u.userID, u.score, u.roundID); err != nil {
			s.logger.Warn(ctx, "update skipped in leaderboard rebuild",
				logger.String("round_id", u.roundID),
				logger.Error(err),
			)
		}
	}

	s.mu.Lock()
	s.leaderboard = board
	s.mu.Unlock()

	n := board.Count(ctx)
	metrics.RecordLeaderboardRebuild()
	s.logger.Info(ctx, "leaderboard rebuilt",
		logger.Int("players", n),
		logger.Int("replayed", len(replay)),
	)
	return n, nil
}

func (s *Service) buildLeaderboard(ctx context.Context) (*repository.TreapLeaderboard, error) {
	rounds, err := s.store.AllRounds(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("rebuild leaderboard: %w", err)
	}
	board := repository.NewLeaderboard()
	// Oldest first, so a tied best keeps the round that set it.
	for i := len(rounds) - 1; i >= 0; i-- {
		r := rounds[i]
		if r.HoleCount() != leaderboardHoles {
			continue
		}
		if _, err := board.UpdateBest(ctx, r.UserID, r.Score, r.ID); err != nil {
			s.logger.Warn(ctx, "round skipped in leaderboard rebuild",
				logger.String("round_id", r.ID),
				logger.Error(err),
			)
		}
	}
	return board, nil
}
