package seed

import (
	"fmt"
	"sort"

	"github.com/okian/golfr/internal/domain/model"
)

// fullRound is the hole count that qualifies a round for the leaderboard.
const fullRound = 18

// ExpectedLeaderboard ranks the plan's players by their best full round,
// lowest first, with equal scores sharing a rank.
func ExpectedLeaderboard(p Plan) []model.LeaderboardEntry { //nolint:gocritic // hugeParam: plans are built once per run
	best := make(map[string]int)
	for _, pr := range p.Rounds {
		r, err := pr.Round()
		if err != nil || r.HoleCount() != fullRound {
			continue
		}
		if old, ok := best[r.UserID]; !ok || r.Score < old {
			best[r.UserID] = r.Score
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(best))
	for id, score := range best {
		entries = append(entries, model.LeaderboardEntry{UserID: id, BestScore: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore < entries[j].BestScore
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		if i > 0 && entries[i].BestScore == entries[i-1].BestScore {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
	return entries
}

// Verify checks that got ranks the same players, scores and ranks as want.
// Round ids are not compared.
func Verify(want, got []model.LeaderboardEntry) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d entries, want %d", ErrMismatch, len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.UserID != g.UserID || w.BestScore != g.BestScore || w.Rank != g.Rank {
			return fmt.Errorf("%w: position %d is %s/%d rank %d, want %s/%d rank %d",
				ErrMismatch, i, g.UserID, g.BestScore, g.Rank, w.UserID, w.BestScore, w.Rank)
		}
	}
	return nil
}
