// Package scheduler runs periodic leaderboard rebuilds on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/golfr/pkg/logger"
	"github.com/okian/golfr/pkg/metrics"
)

const defaultTimeout = time.Minute

// Rebuilder recomputes the leaderboard from stored rounds and reports how
// many players it holds afterwards.
type Rebuilder interface {
	RebuildLeaderboard(ctx context.Context) (int, error)
}

// Scheduler triggers a Rebuilder on a standard five-field cron spec.
// An empty spec yields a disabled scheduler whose Start and Stop are no-ops.
type Scheduler struct {
	c       *cron.Cron
	spec    string
	job     Rebuilder
	timeout time.Duration
	loc     *time.Location
	logger  logger.Logger

	runs     atomic.Int64
	failures atomic.Int64
}

// New parses spec and registers the rebuild job.
func New(spec string, job Rebuilder, opts ...Option) (*Scheduler, error) {
	if job == nil {
		return nil, ErrNoJob
	}
	s := &Scheduler{
		spec:    spec,
		job:     job,
		timeout: defaultTimeout,
		loc:     time.UTC,
		logger:  logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if spec == "" {
		return s, nil
	}

	s.c = cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.c.AddFunc(spec, func() { _ = s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSpec, spec, err)
	}
	return s, nil
}

// Enabled reports whether a schedule is registered.
func (s *Scheduler) Enabled() bool { return s.c != nil }

// Start begins firing the job in the background.
func (s *Scheduler) Start(ctx context.Context) {
	if s.c == nil {
		s.logger.Info(ctx, "leaderboard rebuild schedule disabled")
		return
	}
	s.logger.Info(ctx, "starting scheduler", logger.String("cron", s.spec))
	s.c.Start()
}

// Stop halts the schedule and waits for a running rebuild to finish or for
// ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.c == nil {
		return nil
	}
	done := s.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run performs one rebuild immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	s.runs.Add(1)
	players, err := s.job.RebuildLeaderboard(ctx)
	if err != nil {
		s.failures.Add(1)
		metrics.RecordErrorByComponent("scheduler", "rebuild")
		s.logger.Error(ctx, "leaderboard rebuild failed", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "scheduled rebuild finished",
		logger.Int("players", players),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Runs returns the number of rebuilds attempted.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Failures returns the number of rebuilds that returned an error.
func (s *Scheduler) Failures() int64 { return s.failures.Load() }
