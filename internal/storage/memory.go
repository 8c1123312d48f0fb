package storage

import (
	"context"
	"sync"
	"time"
)

type counterEntry struct {
	count     int
	touchedAt time.Time
}

// MemoryStorage keeps counters in a map. With a TTL, idle entries are dropped
// on access and by a background sweep, which bounds memory for long-running
// processes.
type MemoryStorage struct {
	mu       sync.Mutex
	counters map[string]*counterEntry
	ttl      time.Duration
	now      func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemoryStorage creates an in-memory counter store. now may be nil.
func NewMemoryStorage(ttl time.Duration, now func() time.Time) *MemoryStorage {
	if now == nil {
		now = time.Now
	}
	s := &MemoryStorage{
		counters: make(map[string]*counterEntry),
		ttl:      ttl,
		now:      now,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor(ttl)
	}
	return s
}

func (s *MemoryStorage) Get(ctx context.Context, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.live(conversationID); e != nil {
		return e.count, nil
	}
	return 0, nil
}

func (s *MemoryStorage) Increment(ctx context.Context, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(conversationID)
	if e == nil {
		e = &counterEntry{}
		s.counters[conversationID] = e
	}
	e.count++
	e.touchedAt = s.now()
	return e.count, nil
}

func (s *MemoryStorage) Reset(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, conversationID)
	return nil
}

// Len returns the number of tracked conversations.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// Sweep drops every expired entry and returns how many were removed.
func (s *MemoryStorage) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}
	removed := 0
	now := s.now()
	for id, e := range s.counters {
		if now.Sub(e.touchedAt) > s.ttl {
			delete(s.counters, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStorage) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

// live returns the entry for id, dropping it first if expired. Callers hold mu.
func (s *MemoryStorage) live(id string) *counterEntry {
	e, ok := s.counters[id]
	if !ok {
		return nil
	}
	if s.ttl > 0 && s.now().Sub(e.touchedAt) > s.ttl {
		delete(s.counters, id)
		return nil
	}
	return e
}

func (s *MemoryStorage) janitor(ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
