// Package preferences persists per-client dashboard settings such as the
// active locale and color theme.
package preferences

import (
	"context"
	"fmt"
	"sync"
)

// Store reads and writes string preferences scoped to a client
type Store interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Close() error
}

// Supported drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open creates the store selected by driver
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("unknown preferences driver %q", driver)
	}
}

// MemoryStore keeps preferences in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[scope][key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.values[scope]
	if !ok {
		bucket = make(map[string]string)
		m.values[scope] = bucket
	}
	bucket[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }
