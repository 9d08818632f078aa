package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryKV is an in-memory store.KVStore used to exercise session flows
// without a live key-value server. TTLs are honored against the wall clock.
type memoryKV struct {
	mu      sync.Mutex
	entries map[string]memoryKVEntry

	// failures, when set, is returned by every operation.
	failure error
}

type memoryKVEntry struct {
	value     []byte
	expiresAt time.Time
}

func newMemoryKV() *memoryKV {
	return &memoryKV{entries: make(map[string]memoryKVEntry)}
}

func (m *memoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, m.failure
	}

	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}
	return entry.value, nil
}

func (m *memoryKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return m.failure
	}

	m.entries[key] = memoryKVEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, keys ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return 0, m.failure
	}

	deleted := 0
	for _, key := range keys {
		if entry, ok := m.entries[key]; ok {
			if !time.Now().After(entry.expiresAt) {
				deleted++
			}
			delete(m.entries, key)
		}
	}
	return deleted, nil
}

func (m *memoryKV) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, m.failure
	}

	var keys []string
	for key, entry := range m.entries {
		if time.Now().After(entry.expiresAt) {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// setFailure makes every subsequent operation return err.
func (m *memoryKV) setFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// len reports the number of live entries.
func (m *memoryKV) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, entry := range m.entries {
		if !time.Now().After(entry.expiresAt) {
			n++
		}
	}
	return n
}
