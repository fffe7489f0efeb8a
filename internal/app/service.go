// Package service provides the application service behind the HTTP API:
// profiles and stats, round entry and submission, the course catalog, the
// social feed and the best-round leaderboard.
package service

import (
	"context"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/okian/golfr/internal/adapters/backend"
	eventqueue "github.com/okian/golfr/internal/adapters/mq/queue"
	workerpool "github.com/okian/golfr/internal/adapters/mq/worker"
	"github.com/okian/golfr/internal/adapters/repository"
	"github.com/okian/golfr/internal/domain/catalog"
	"github.com/okian/golfr/internal/domain/dedupe"
	"github.com/okian/golfr/internal/domain/entry"
	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/pkg/logger"
	"github.com/okian/golfr/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// likeStripes is the number of locks like writes are serialized on.
const likeStripes = 64

type bestUpdate struct {
	userID, roundID string
	score           int
}

type likeKey struct {
	user, round string
}

func (k likeKey) stripe() int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.user))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.round))
	return int(h.Sum32() % likeStripes)
}

// Service implements the API dependencies for golfr.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend     backend.Backend
	store       *repository.Store
	leaderboard repository.Leaderboard
	tracker     dedupe.Tracker
	sessions    *entry.Sessions
	eventQueue  *eventqueue.InMemoryQueue
	workerPool  *workerpool.Pool

	// Likes applied locally and not yet confirmed by the backend.
	likesMu sync.Mutex
	pending map[likeKey]bool
	// Writes for one (user, round) hold its stripe.
	likeLocks [likeStripes]sync.Mutex

	// Best-score updates seen while a rebuild reads storage, replayed onto
	// the new board before it is swapped in. Taken before mu.
	rebuildRun sync.Mutex
	rebuildMu  sync.Mutex
	rebuilding bool
	replay     []bestUpdate

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	sessionLimit int
	feedLimit    int
	seedCatalog  bool
	now          func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Components that need no background work are
// usable before Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    1024,
		dedupeSize:   10000,
		sessionLimit: 1000,
		feedLimit:    20,
		seedCatalog:  true,
		now:          time.Now,
		pending:      make(map[likeKey]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.backend == nil {
		s.backend = backend.NewMemory()
	}
	s.store = repository.NewStore(s.backend, repository.WithClock(s.now))
	s.leaderboard = repository.NewLeaderboard()
	s.tracker = dedupe.NewInMemoryTracker(dedupe.WithMaxSize(s.dedupeSize))
	s.sessions = entry.NewSessions(s.sessionLimit)
	return s
}

// Store exposes the typed repository, for seeding and tooling.
func (s *Service) Store() *repository.Store { return s.store }

// Start seeds the catalog, rebuilds the leaderboard from stored rounds and
// starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting golfr service...")

	if s.seedCatalog {
		added, err := s.store.SeedCourses(ctx, catalog.Default())
		if err != nil {
			return err
		}
		if added > 0 {
			s.logger.Info(ctx, "seeded course catalog", logger.Int("courses", added))
		}
	}

	board, err := s.buildLeaderboard(ctx)
	if err != nil {
		return err
	}
	s.leaderboard = board

	// Workers outlive the start-up context.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, workerpool.HandlerFunc(s.HandleEvent))
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "golfr service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("players", board.Count(ctx)),
	)
	return nil
}

// Stop drains queued events and stops the workers. The backend is owned
// by the caller and stays open.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	pool, cancelWorkers := s.workerPool, s.cancel
	s.eventQueue = nil
	s.workerPool = nil
	s.started = false
	s.mu.Unlock()

	// Workers read the leaderboard under s.mu, so drain without holding it.
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping golfr service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	cancelWorkers()
	s.logger.Info(ctx, "golfr service stopped")
}

// enqueue hands e to the workers, or applies it inline when the service
// is not running.
func (s *Service) enqueue(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	s.mu.RLock()
	q := s.eventQueue
	if q != nil {
		err := q.Enqueue(ctx, e)
		s.mu.RUnlock()
		return err
	}
	s.mu.RUnlock()
	return s.HandleEvent(ctx, e)
}

func (s *Service) board() repository.Leaderboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderboard
}

// courses returns the stored catalog, or the built-in one when nothing is
// stored.
func (s *Service) courses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.store.Courses(ctx)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return catalog.Default(), nil
	}
	return courses, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"entrySessions":   s.sessions.Len(),
		"idempotencyKeys": s.tracker.Size(),
		"players":         s.leaderboard.Count(ctx),
	}

	if s.started {
		stats["queueLength"] = s.eventQueue.Len(ctx)
		pool := s.workerPool.Stats()
		stats["eventsProcessed"] = pool.Processed
		stats["eventsFailed"] = pool.Failed
	}

	s.likesMu.Lock()
	stats["pendingLikes"] = len(s.pending)
	s.likesMu.Unlock()

	metrics.UpdateEntrySessions(s.sessions.Len())
	return stats
}
