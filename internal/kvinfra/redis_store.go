package kvinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bytebank/go-finance-cache/cache"
)

// RedisStore is a cache.Store backed by Redis, for deployments where cache
// entries must survive process restarts.
type RedisStore struct {
	client *redis.Client
}

var _ cache.Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedisStore connects to Redis and verifies the connection before
// returning a store.
func DialRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kvinfra: connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// GetItem implements cache.Store.
func (r *RedisStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kvinfra: redis get: %w", err)
	}
	return value, true, nil
}

// SetItem implements cache.Store. Entries are stored without a Redis TTL;
// logical expiry lives in the cache envelope.
func (r *RedisStore) SetItem(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("kvinfra: redis set: %w", err)
	}
	return nil
}

// RemoveItem implements cache.Store.
func (r *RedisStore) RemoveItem(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("kvinfra: redis del: %w", err)
	}
	return nil
}

// MultiRemove implements cache.Store.
func (r *RedisStore) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("kvinfra: redis del: %w", err)
	}
	return nil
}

// Keys implements cache.Store. It walks the whole keyspace with SCAN,
// mirroring the durable-store contract; callers filter by prefix.
func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, "", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("kvinfra: redis scan: %w", err)
	}
	return keys, nil
}

// Close closes the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
