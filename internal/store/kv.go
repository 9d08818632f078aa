package store

import (
	"context"
	"time"
)

// KVStore defines the key-value operations used for token mirror records
// and the task cache. Implementations must provide atomic per-key
// semantics; no multi-key transactions are assumed or required.
type KVStore interface {
	// Get returns the value stored at key, or (nil, nil) when the key does
	// not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value at key with the given time-to-live.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Returns the number of keys that
	// actually existed.
	Delete(ctx context.Context, keys ...string) (int, error)

	// ScanKeys returns all live keys matching the given prefix.
	// Cost is proportional to the keyspace; callers that need this on a hot
	// path should maintain an index instead.
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
}
