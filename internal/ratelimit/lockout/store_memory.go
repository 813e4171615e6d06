package lockout

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// MemoryStore keeps lockout state in process memory. Good for development and
// single-instance deployments; multi-instance deployments want RedisStore so
// all replicas see the same counters.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) AddFailure(_ context.Context, key string, window time.Duration) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	r := s.records[key]
	if r == nil || now.Sub(r.windowStart) > window {
		r = &memoryRecord{windowStart: now}
		s.records[key] = r
	}
	r.failures++
	return Record{Failures: r.failures, LockedUntil: r.lockedUntil}, nil
}

func (s *MemoryStore) Lock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.records[key]
	if r == nil {
		r = &memoryRecord{windowStart: s.now()}
		s.records[key] = r
	}
	r.lockedUntil = until
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.records[key]
	if r == nil {
		return Record{}, nil
	}

	// Prune stale entries on read so the map cannot grow unbounded with
	// one-off failures.
	now := s.now()
	if now.Sub(r.windowStart) > 24*time.Hour && !r.lockedUntil.After(now) {
		delete(s.records, key)
		return Record{}, nil
	}
	return Record{Failures: r.failures, LockedUntil: r.lockedUntil}, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
