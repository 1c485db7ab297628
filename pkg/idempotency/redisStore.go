package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "processed_orders:"

// RedisStore keeps processed order ids in Redis with the retention window as
// key TTL, giving every consumer instance the same view. SetNX makes the
// first mark atomic, so concurrent first-deliveries of the same order race on
// a single winner instead of both passing the check.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
}

func NewRedisStore(rdb *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisStore{rdb: rdb, retention: retention}
}

func (s *RedisStore) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, redisKeyPrefix+orderID).Result()
	if err != nil {
		return false, fmt.Errorf("exists failed: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkProcessed(ctx context.Context, orderID string) error {
	// SET NX keeps the earliest processed timestamp; expiry is the sweep.
	ok, err := s.rdb.SetNX(ctx, redisKeyPrefix+orderID, time.Now().UTC().Format(time.RFC3339), s.retention).Result()
	if err != nil {
		return fmt.Errorf("setnx failed: %w", err)
	}
	if !ok {
		// already marked by a concurrent delivery; refresh the window
		if err := s.rdb.Expire(ctx, redisKeyPrefix+orderID, s.retention).Err(); err != nil {
			return fmt.Errorf("expire failed: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Close(ctx context.Context) error {
	return s.rdb.Close()
}
