package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL string        // Base URL of a running server; empty seeds the backend directly
	Workers int           // Concurrent round submitters
	Timeout time.Duration // HTTP request timeout
	Verify  bool          // Compare the resulting leaderboard with the plan
	Verbose bool          // Log every submission
}

// Stats holds run statistics.
type Stats struct {
	Profiles           int
	RoundsPlanned      int
	RoundsSubmitted    int
	RoundsDuplicate    int
	RoundsFailed       int
	Follows            int
	Comments           int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
