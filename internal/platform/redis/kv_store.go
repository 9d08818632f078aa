// Package redis provides the Redis-backed implementation of the key-value
// store used for token mirror records and the task cache.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taskforge/taskforge-api/internal/config"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/store"
)

// KVStore implements store.KVStore on top of a Redis client.
// Per-key operations (GET/SET/DEL) are atomic on the Redis side, which is
// the only synchronization the mirror records and cache entries rely on.
type KVStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewClient creates a Redis client from configuration and verifies the
// connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// NewKVStore creates a new Redis implementation of the KVStore interface.
// If logger is nil, a default logger will be used.
func NewKVStore(client *redis.Client, logger *slog.Logger) *KVStore {
	if client == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &KVStore{
		client: client,
		logger: logger.With(slog.String("component", "kv_store")),
	}
}

// Ensure KVStore implements store.KVStore interface
var _ store.KVStore = (*KVStore)(nil)

// Get implements store.KVStore.Get
// Returns (nil, nil) when the key does not exist.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

// SetWithTTL implements store.KVStore.SetWithTTL
func (s *KVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Delete implements store.KVStore.Delete
func (s *KVStore) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, keys...).Result()
	return int(n), err
}

// ScanKeys implements store.KVStore.ScanKeys
// Uses SCAN rather than KEYS so a large keyspace never blocks the server.
func (s *KVStore) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Error("key scan failed",
			slog.String("error", redact.Error(err)),
			slog.String("prefix", prefix))
		return nil, err
	}

	return keys, nil
}
