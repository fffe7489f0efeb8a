package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`golfr seed
==========

Loads demo profiles, rounds, follows and comments into golfr.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of a running server. When empty, the backend named by the
        GOLFR_ configuration is opened and seeded directly.
  -workers int
        Number of concurrent round submitters (default CPU cores)
  -timeout duration
        HTTP request timeout (default 10s)
  -verify
        Compare the resulting leaderboard with the seeded rounds (default true)
  -verbose
        Log every submitted round
  -help
        Show this help message

Examples:
  # Seed a local bolt file
  GOLFR_BACKEND=bolt GOLFR_DSN=golfr.db go run ./cmd/seed

  # Seed a running server
  go run ./cmd/seed -url http://localhost:8080
`)
}
