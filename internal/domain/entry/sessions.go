package entry

import (
	"sync"

	"github.com/google/uuid"
)

type session struct {
	mu   sync.Mutex
	flow *Flow
}

// Sessions is a bounded registry of in-progress flows keyed by id. When
// full, the oldest session is dropped to make room.
type Sessions struct {
	mu    sync.Mutex
	items map[string]*session
	order []string
	max   int
}

// NewSessions creates a registry holding at most limit flows. limit <= 0
// means unbounded.
func NewSessions(limit int) *Sessions {
	return &Sessions{
		items: make(map[string]*session),
		max:   limit,
	}
}

// Add registers f and returns its session id.
func (s *Sessions) Add(f *Flow) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 {
		for len(s.items) >= s.max && len(s.order) > 0 {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.items, oldest)
		}
	}
	s.items[id] = &session{flow: f}
	s.order = append(s.order, id)
	return id
}

// Do runs fn with exclusive access to the flow id. A flow that ends in
// Submitted is removed once fn returns.
func (s *Sessions) Do(id string, fn func(f *Flow) error) error {
	s.mu.Lock()
	sess, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	err := fn(sess.flow)
	done := sess.flow.State() == Submitted
	sess.mu.Unlock()

	if done {
		s.Remove(id)
	}
	return err
}

// Remove drops the session id if present.
func (s *Sessions) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
