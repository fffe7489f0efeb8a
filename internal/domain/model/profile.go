package model

// Stats is the aggregate view over a user's rounds.
type Stats struct {
	RoundsPlayed int     `json:"rounds_played"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
}

// UserProfile is a user's public profile with derived stats.
type UserProfile struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	Bio            string  `json:"bio,omitempty"`
	Handicap       float64 `json:"handicap"`
	Stats          Stats   `json:"stats"`
	FollowerCount  int     `json:"follower_count"`
	FollowingCount int     `json:"following_count"`
}

// LeaderboardEntry is the read shape of a best-round ranking.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    string `json:"user_id"`
	BestScore int    `json:"best_score"`
	RoundID   string `json:"round_id,omitempty"`
}
