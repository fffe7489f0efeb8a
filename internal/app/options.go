package service

import (
	"time"

	"github.com/okian/golfr/internal/adapters/backend"
	"github.com/okian/golfr/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the row store. The default is an in-process
// backend.Memory.
func WithBackend(b backend.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSessionLimit caps concurrently open round-entry sessions.
func WithSessionLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.sessionLimit = limit
		}
	}
}

// WithFeedLimit sets the default number of posts returned by Feed.
func WithFeedLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.feedLimit = limit
		}
	}
}

// WithSeedCatalog controls whether Start stores the built-in course
// catalog.
func WithSeedCatalog(seed bool) Option {
	return func(s *Service) {
		s.seedCatalog = seed
	}
}

// WithClock sets the time source used for defaults and relative ages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
