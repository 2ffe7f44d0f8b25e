package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jbattja/fugata-sub001/internal/core"
)

const consumedKeyPrefix = "fugata:consumed:"

var _ core.ConsumedStore = (*RedisConsumedStore)(nil)

// RedisConsumedStore marks redirect actions as consumed across bridge
// instances. The marker is written with SETNX so only the first consumer
// wins, later attempts see the existing key and are refused.
type RedisConsumedStore struct {
	client *redis.Client
}

func NewRedisConsumedStore(addr, password string, db int) *RedisConsumedStore {
	return &RedisConsumedStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisConsumedStore) Consume(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, consumedKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("marking action consumed: %w", err)
	}
	return ok, nil
}

func (s *RedisConsumedStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}
	return nil
}

func (s *RedisConsumedStore) Close() error {
	return s.client.Close()
}
