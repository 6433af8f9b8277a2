package catalog

import "sync"

// Store owns one catalog State and notifies subscribers after each Dispatch.
type Store struct {
	mu     sync.RWMutex
	state  State
	nextID int
	subs   map[int]func(State)
}

// NewStore creates a Store starting from initial.
func NewStore(initial State) *Store {
	return &Store{
		state: initial,
		subs:  make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch reduces a into a new snapshot, stores it and calls every subscriber with it.
// Subscribers run on the caller's goroutine after the lock is released.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
