package seed

import (
	"context"

	"github.com/okian/golfr/internal/domain/model"
)

// Target receives seeded data. The service satisfies it directly; HTTPTarget
// satisfies it over the REST API.
type Target interface {
	UpdateProfile(ctx context.Context, p model.UserProfile) error
	Rounds(ctx context.Context, userID string) ([]model.Round, error)
	SubmitRound(ctx context.Context, key string, r model.Round) (model.Round, bool, error)
	Follow(ctx context.Context, follower, target string) (bool, error)
	Comment(ctx context.Context, userID, roundID, content string) (model.Comment, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// rebuilder is implemented by targets that can recompute the leaderboard
// from stored rounds before verification.
type rebuilder interface {
	RebuildLeaderboard(ctx context.Context) (int, error)
}
