package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/okian/golfr/internal/adapters/backend"
	app "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/config"
	"github.com/okian/golfr/internal/seed"
	"github.com/okian/golfr/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "", "Base URL of a running server; empty seeds the configured backend")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent round submitters")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verify  = flag.Bool("verify", true, "Compare the resulting leaderboard with the seeded rounds")
		verbose = flag.Bool("verbose", false, "Log every submitted round")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL: *baseURL,
		Workers: *workers,
		Timeout: *timeout,
		Verify:  *verify,
		Verbose: *verbose,
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *seed.Config) error {
	if cfg.BaseURL != "" {
		target := seed.NewHTTPTarget(cfg.BaseURL, cfg.Timeout)
		if err := target.Health(ctx); err != nil {
			return fmt.Errorf("service health check failed: %w", err)
		}
		return report(ctx, cfg, target)
	}

	conf, err := config.Load(ctx)
	if err != nil {
		return err
	}
	raw, err := backend.Open(ctx, conf.Backend, conf.DSN)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	b := backend.Instrumented(raw, logger.Named("backend"))
	defer func() { _ = b.Close() }()

	svc := app.New(
		app.WithBackend(b),
		app.WithSeedCatalog(true),
		app.WithWorkerCount(conf.WorkerCount),
		app.WithQueueSize(conf.EventQueueSize),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	return report(ctx, cfg, svc)
}

func report(ctx context.Context, cfg *seed.Config, target seed.Target) error {
	stats, err := seed.Run(ctx, cfg, seed.DefaultPlan(), target)
	if stats != nil {
		logger.Get().Info(ctx, "final statistics",
			logger.Int("profiles", stats.Profiles),
			logger.Int("roundsPlanned", stats.RoundsPlanned),
			logger.Int("roundsSubmitted", stats.RoundsSubmitted),
			logger.Int("roundsDuplicate", stats.RoundsDuplicate),
			logger.Int("roundsFailed", stats.RoundsFailed),
			logger.Int("follows", stats.Follows),
			logger.Int("comments", stats.Comments),
			logger.Int("leaderboardEntries", stats.LeaderboardEntries),
			logger.Duration("duration", stats.Duration),
		)
	}
	return err
}
