package repository

import (
	"math/rand/v2"
	"time"
)

// Option applies a configuration option to the TreapLeaderboard.
type Option func(*TreapLeaderboard)

// WithSeed fixes the treap priority source, making tree shape
// reproducible.
func WithSeed(seed uint64) Option {
	return func(l *TreapLeaderboard) {
		l.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// StoreOption applies a configuration option to the Store.
type StoreOption func(*Store)

// WithClock sets the time source for created_at columns.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the id source for new rows.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}
