package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Common errors for counter store construction.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
)

// CounterStore keeps the per-conversation count of consecutive messages the
// assistant could not understand. A conversation that was never seen has a
// count of zero.
type CounterStore interface {
	Get(ctx context.Context, conversationID string) (int, error)
	// Increment adds one to the count and returns the new value.
	Increment(ctx context.Context, conversationID string) (int, error)
	Reset(ctx context.Context, conversationID string) error
	Close() error
}

// StoreType selects a CounterStore driver.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypePostgres StoreType = "postgres"
)

// StoreOption configures NewCounterStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	ttl         time.Duration
	now         func() time.Time
	redisClient *redis.Client
	db          *sql.DB
}

// WithTTL drops counters idle for longer than ttl. Zero keeps them for the
// life of the store.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithClock overrides the wall clock used for TTL bookkeeping.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}

// WithRedisClient sets the client used by the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithDB sets the database handle used by the postgres driver.
func WithDB(db *sql.DB) StoreOption {
	return func(c *storeConfig) {
		c.db = db
	}
}

// NewCounterStore creates a CounterStore of the given type.
func NewCounterStore(storeType StoreType, opts ...StoreOption) (CounterStore, error) {
	cfg := &storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory, "":
		return NewMemoryStorage(cfg.ttl, cfg.now), nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStorage(cfg.redisClient, cfg.ttl), nil

	case StoreTypePostgres:
		if cfg.db == nil {
			return nil, ErrInvalidConfig
		}
		return NewPostgresStorage(cfg.db, cfg.ttl)

	default:
		return nil, ErrInvalidStoreType
	}
}
