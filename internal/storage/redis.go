package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey holds the document when no key is configured.
const DefaultRedisKey = "sterladometr:stats"

// RedisConfig holds configuration for the Redis backend.
type RedisConfig struct {
	RedisClient *redis.Client
	Key         string
}

// RedisBackend keeps the document under one Redis key.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedis creates a Redis backend and checks connectivity.
func NewRedis(ctx context.Context, cfg *RedisConfig) (*RedisBackend, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.RedisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: cfg.RedisClient, key: key}, nil
}

func (b *RedisBackend) Name() string { return "redis" }

// Load fetches the document.
func (b *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return data, nil
}

// Save overwrites the document without expiry.
func (b *RedisBackend) Save(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
