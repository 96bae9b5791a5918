package queue

import (
	"context"
	"sync"
)

// subscriberSet tracks pending-count listeners registered through Subscribe.
type subscriberSet struct {
	mu        sync.Mutex
	nextID    int
	callbacks map[int]func(pending int)
}

// Subscribe registers a callback invoked with the fresh pending count after
// every successful store mutation. The returned function cancels the
// registration. Callbacks run synchronously on the mutating goroutine, so a
// UI layer that needs fan-out should hand off itself.
func (s *Store) Subscribe(callback func(pending int)) func() {
	if callback == nil {
		return func() {}
	}
	s.subscribers.mu.Lock()
	defer s.subscribers.mu.Unlock()
	if s.subscribers.callbacks == nil {
		s.subscribers.callbacks = make(map[int]func(pending int))
	}
	id := s.subscribers.nextID
	s.subscribers.nextID++
	s.subscribers.callbacks[id] = callback
	return func() {
		s.subscribers.mu.Lock()
		defer s.subscribers.mu.Unlock()
		delete(s.subscribers.callbacks, id)
	}
}

func (s *Store) notifySubscribers(ctx context.Context) {
	s.subscribers.mu.Lock()
	if len(s.subscribers.callbacks) == 0 {
		s.subscribers.mu.Unlock()
		return
	}
	callbacks := make([]func(pending int), 0, len(s.subscribers.callbacks))
	for _, cb := range s.subscribers.callbacks {
		callbacks = append(callbacks, cb)
	}
	s.subscribers.mu.Unlock()

	count, err := s.Count(ctx)
	if err != nil {
		// Listeners only ever see real counts; a failed read here is not
		// worth surfacing through the signal path.
		return
	}
	for _, cb := range callbacks {
		cb(count)
	}
}
