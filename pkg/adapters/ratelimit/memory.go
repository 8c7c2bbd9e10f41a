package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type counter struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process. Expired windows are swept lazily.
type MemoryStore struct {
	clock clockwork.Clock

	mu        sync.Mutex
	counters  map[string]*counter
	nextSweep time.Time
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{clock: clock, counters: make(map[string]*counter)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.nextSweep) {
		for k, c := range s.counters {
			if !now.Before(c.resetAt) {
				delete(s.counters, k)
			}
		}
		s.nextSweep = now.Add(window)
	}

	c, ok := s.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, c.resetAt, nil
}

func (s *MemoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
