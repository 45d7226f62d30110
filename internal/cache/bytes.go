package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bytes is a TTL byte store. The fetch cache goes through this interface
// so it can live in process memory or in Redis depending on deployment,
// without the aggregator caring which.
type Bytes interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MemoryBytes adapts Memory to the Bytes interface.
type MemoryBytes struct {
	m *Memory[[]byte]
}

func NewMemoryBytes(defaultTTL time.Duration, max int) *MemoryBytes {
	return &MemoryBytes{m: NewMemory[[]byte](defaultTTL, max)}
}

func (b *MemoryBytes) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.m.Get(key)
	return v, ok, nil
}

func (b *MemoryBytes) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.m.SetTTL(key, value, ttl)
	return nil
}

// RedisBytes backs the store with Redis, letting several instances share
// one fetch cache.
type RedisBytes struct {
	client *redis.Client
}

// NewRedis connects and pings before returning the store.
func NewRedis(ctx context.Context, addr, password string, db int) (*RedisBytes, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}
	return &RedisBytes{client: client}, nil
}

func (b *RedisBytes) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (b *RedisBytes) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBytes) Close() error { return b.client.Close() }
