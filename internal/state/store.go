package state

import (
	"fmt"
	"sync"

	"careeros/internal/errors"
	"careeros/internal/types"
)

// Store serializes every transition of one session's State
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
	logger    *errors.Logger
}

// NewStore creates a store holding the initial empty state
func NewStore(logger *errors.Logger) *Store {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Store{
		state:     State{Ops: map[Operation]OpStatus{}},
		listeners: make(map[int]func(State)),
		logger:    logger,
	}
}

// Dispatch applies a and returns the new state. Listeners are called with the
// new state after the store lock is released, so they may dispatch in turn.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("State transition", "action", fmt.Sprintf("%T", a))

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to run after every dispatch and returns its removal func
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// SelectedJob resolves the current selection
func (s *Store) SelectedJob() (*types.Job, bool) {
	return s.Snapshot().SelectedJob()
}

// Busy reports whether any operation is in flight
func (s *Store) Busy() bool {
	return s.Snapshot().Busy()
}
