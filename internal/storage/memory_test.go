package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStorage_IncrementGetReset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage(0, nil)
	defer s.Close()

	if n, err := s.Get(ctx, "chat-1"); err != nil || n != 0 {
		t.Fatalf("Get() on unseen conversation = %d, %v; want 0, nil", n, err)
	}

	for want := 1; want <= 3; want++ {
		n, err := s.Increment(ctx, "chat-1")
		if err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		if n != want {
			t.Errorf("Increment() = %d, want %d", n, want)
		}
	}

	if n, _ := s.Get(ctx, "chat-2"); n != 0 {
		t.Errorf("counters leak across conversations: Get(chat-2) = %d", n)
	}

	if err := s.Reset(ctx, "chat-1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if n, _ := s.Get(ctx, "chat-1"); n != 0 {
		t.Errorf("Get() after Reset() = %d, want 0", n)
	}
}

func TestMemoryStorage_TTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	s := NewMemoryStorage(time.Hour, clock.Now)
	defer s.Close()

	s.Increment(ctx, "idle")
	s.Increment(ctx, "active")

	clock.Advance(40 * time.Minute)
	s.Increment(ctx, "active")

	clock.Advance(30 * time.Minute)

	if n, _ := s.Get(ctx, "idle"); n != 0 {
		t.Errorf("expired counter still visible: %d", n)
	}
	if n, _ := s.Get(ctx, "active"); n != 2 {
		t.Errorf("Get(active) = %d, want 2", n)
	}

	if n, _ := s.Increment(ctx, "idle"); n != 1 {
		t.Errorf("Increment() after expiry = %d, want 1", n)
	}
}

func TestMemoryStorage_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	s := NewMemoryStorage(time.Hour, clock.Now)
	defer s.Close()

	for _, id := range []string{"a", "b", "c"} {
		s.Increment(ctx, id)
	}
	clock.Advance(2 * time.Hour)
	s.Increment(ctx, "d")

	if removed := s.Sweep(); removed != 3 {
		t.Errorf("Sweep() removed %d, want 3", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStorage_CloseTwice(t *testing.T) {
	s := NewMemoryStorage(time.Minute, nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestNewCounterStore(t *testing.T) {
	s, err := NewCounterStore(StoreTypeMemory, WithTTL(time.Minute))
	if err != nil {
		t.Fatalf("NewCounterStore(memory) error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("NewCounterStore(memory) = %T, want *MemoryStorage", s)
	}

	if _, err := NewCounterStore(StoreTypeRedis); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewCounterStore(redis) without client error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewCounterStore(StoreTypePostgres); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewCounterStore(postgres) without db error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewCounterStore("etcd"); !errors.Is(err, ErrInvalidStoreType) {
		t.Errorf("NewCounterStore(etcd) error = %v, want ErrInvalidStoreType", err)
	}
}
