// Package redis implements store.Store on Redis.
//
// Subscriptions are JSON documents with unique-index keys for the
// (eventType, targetURL) pair and the remote id, plus sorted-set indexes for
// ordered listing. Recent deliveries are msgpack records in a capped list per
// event type.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/grove/kv"
	"github.com/xraph/grove/kv/drivers/redisdriver"

	relaystore "github.com/xraph/renderrelay/store"
)

// compile-time interface check
var _ relaystore.Store = (*Store)(nil)

// Store implements store.Store using go-redis.
type Store struct {
	kv        *kv.Store
	rdb       goredis.UniversalClient
	recentCap int
}

// Option configures a Redis Store.
type Option func(*Store)

// WithRecentCapacity sets how many deliveries are kept per event type.
func WithRecentCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentCap = n
		}
	}
}

// New creates a Redis store on an existing client. The store owns the client
// and closes it on Close.
func New(rdb goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, recentCap: relaystore.DefaultRecentCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromKV creates a Redis store backed by a Grove KV store, for hosts that
// already manage their Redis connection through grove.
func NewFromKV(store *kv.Store, opts ...Option) *Store {
	s := New(redisdriver.UnwrapClient(store), opts...)
	s.kv = store
	return s
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.kv != nil {
		return s.kv.Ping(ctx)
	}
	return s.rdb.Ping(ctx).Err()
}

// Close closes the KV store or the Redis client.
func (s *Store) Close() error {
	if s.kv != nil {
		return s.kv.Close()
	}
	return s.rdb.Close()
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// scoreFromTime converts a time.Time to a sorted set score (unix seconds as float64).
func scoreFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// isRedisNil checks if an error is a Redis nil (key not found).
func isRedisNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// getEntity retrieves and decodes a JSON entity.
func (s *Store) getEntity(ctx context.Context, key string, dest any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// encodeEntity encodes an entity for SET.
func encodeEntity(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("renderrelay/redis: marshal entity: %w", err)
	}
	return raw, nil
}

// rangeBounds converts offset/limit pagination into ZRANGE start/stop.
func rangeBounds(offset, limit int) (start, stop int64) {
	if offset < 0 {
		offset = 0
	}
	start = int64(offset)
	stop = -1
	if limit > 0 {
		stop = start + int64(limit) - 1
	}
	return start, stop
}
