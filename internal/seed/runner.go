package seed

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/pkg/logger"
)

// Run loads plan into target and, when cfg.Verify is set, checks the
// resulting leaderboard. Rounds already stored for a user (same course,
// date and score) are skipped, so repeated runs do not duplicate data.
func Run(ctx context.Context, cfg *Config, plan Plan, target Target) (*Stats, error) { //nolint:gocritic // hugeParam: plans are built once per run
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now(), RoundsPlanned: len(plan.Rounds)}
	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
	}()

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("profiles", len(plan.Profiles)),
		logger.Int("rounds", len(plan.Rounds)),
		logger.Int("workers", cfg.Workers),
	)

	for _, p := range plan.Profiles {
		if err := target.UpdateProfile(ctx, p); err != nil {
			return stats, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		stats.Profiles++
	}

	ids, fresh, err := submitRounds(ctx, cfg, plan.Rounds, target, stats)
	if err != nil {
		return stats, err
	}

	for _, f := range plan.Follows {
		changed, err := target.Follow(ctx, f[0], f[1])
		if err != nil {
			return stats, fmt.Errorf("follow %s -> %s: %w", f[0], f[1], err)
		}
		if changed {
			stats.Follows++
		}
	}

	for _, c := range plan.Comments {
		if c.Round < 0 || c.Round >= len(ids) || !fresh[c.Round] {
			continue
		}
		if _, err := target.Comment(ctx, c.UserID, ids[c.Round], c.Content); err != nil {
			return stats, fmt.Errorf("comment on %s: %w", ids[c.Round], err)
		}
		stats.Comments++
	}

	if stats.RoundsFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrRoundsFailed, stats.RoundsFailed, len(plan.Rounds))
	}

	if cfg.Verify {
		if err := verify(ctx, plan, target, stats); err != nil {
			return stats, err
		}
	}

	log.Info(ctx, "seed run completed",
		logger.Int("profiles", stats.Profiles),
		logger.Int("submitted", stats.RoundsSubmitted),
		logger.Int("duplicate", stats.RoundsDuplicate),
		logger.Int("follows", stats.Follows),
		logger.Int("comments", stats.Comments),
		logger.Duration("duration", time.Since(stats.StartTime)),
	)
	return stats, nil
}

type roundKey struct {
	course string
	date   string
	score  int
}

// existingRounds indexes the stored rounds of every user in rounds.
func existingRounds(ctx context.Context, rounds []PlannedRound, target Target) (map[string]map[roundKey]string, error) {
	out := make(map[string]map[roundKey]string)
	for _, pr := range rounds {
		if _, ok := out[pr.UserID]; ok {
			continue
		}
		stored, err := target.Rounds(ctx, pr.UserID)
		if err != nil {
			return nil, fmt.Errorf("rounds of %s: %w", pr.UserID, err)
		}
		idx := make(map[roundKey]string, len(stored))
		for _, r := range stored {
			idx[roundKey{r.CourseID, r.PlayedOn.UTC().Format(model.DateLayout), r.Score}] = r.ID
		}
		out[pr.UserID] = idx
	}
	return out, nil
}

// submitRounds sends the planned rounds through a pool of workers. It
// returns the stored id of every round and which of them this run created.
func submitRounds(ctx context.Context, cfg *Config, rounds []PlannedRound, target Target, stats *Stats) ([]string, []bool, error) {
	log := logger.Get().Named("seed")

	existing, err := existingRounds(ctx, rounds, target)
	if err != nil {
		return nil, nil, err
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	var (
		submitted int64
		duplicate int64
		failed    int64
		ids       = make([]string, len(rounds))
		fresh     = make([]bool, len(rounds))
	)

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				pr := rounds[i]
				if id, ok := existing[pr.UserID][roundKey{pr.CourseID, pr.Date, pr.Score}]; ok {
					ids[i] = id
					atomic.AddInt64(&duplicate, 1)
					continue
				}
				r, err := pr.Round()
				if err == nil {
					var dup bool
					r, dup, err = target.SubmitRound(ctx, pr.Key(), r)
					if err == nil {
						ids[i] = r.ID
						if dup {
							atomic.AddInt64(&duplicate, 1)
							continue
						}
						fresh[i] = true
						atomic.AddInt64(&submitted, 1)
						if cfg.Verbose {
							log.Info(ctx, "round submitted",
								logger.String("user_id", pr.UserID),
								logger.String("course_id", pr.CourseID),
								logger.Int("score", pr.Score),
							)
						}
						continue
					}
				}
				atomic.AddInt64(&failed, 1)
				log.Error(ctx, "round failed", logger.String("key", pr.Key()), logger.Error(err))
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range rounds {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.RoundsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RoundsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.RoundsFailed = int(atomic.LoadInt64(&failed))
	if err := ctx.Err(); err != nil {
		return ids, fresh, err
	}
	return ids, fresh, nil
}

// verify compares the target's leaderboard with the plan's expectation.
func verify(ctx context.Context, plan Plan, target Target, stats *Stats) error { //nolint:gocritic // hugeParam: plans are built once per run
	if r, ok := target.(rebuilder); ok {
		if _, err := r.RebuildLeaderboard(ctx); err != nil {
			return fmt.Errorf("rebuild leaderboard: %w", err)
		}
	}
	want := ExpectedLeaderboard(plan)
	if len(want) == 0 {
		return nil
	}
	got, err := target.Leaderboard(ctx, len(want))
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}
	stats.LeaderboardEntries = len(got)
	if err := Verify(want, got); err != nil {
		return err
	}
	logger.Get().Named("seed").Info(ctx, "leaderboard verified", logger.Int("entries", len(got)))
	return nil
}
