package services

import (
	"log/slog"
	"sync"
	"time"
)

// KeyLockManager hands out one mutex per key so that writes to different
// drafts or inventory items proceed in parallel
type KeyLockManager struct {
	kind     string
	locks    map[string]*sync.RWMutex
	locksMux sync.RWMutex
}

// NewKeyLockManager creates a lock manager; kind names the keys in logs
func NewKeyLockManager(kind string) *KeyLockManager {
	return &KeyLockManager{
		kind:  kind,
		locks: make(map[string]*sync.RWMutex),
	}
}

// lockFor returns the mutex for key, creating it on first use
func (m *KeyLockManager) lockFor(key string) *sync.RWMutex {
	m.locksMux.RLock()
	if lock, exists := m.locks[key]; exists {
		m.locksMux.RUnlock()
		return lock
	}
	m.locksMux.RUnlock()

	m.locksMux.Lock()
	defer m.locksMux.Unlock()

	// Double-check in case another goroutine created it
	if lock, exists := m.locks[key]; exists {
		return lock
	}

	lock := &sync.RWMutex{}
	m.locks[key] = lock
	slog.Debug("Created new key lock", "kind", m.kind, "key", key)
	return lock
}

// WithWriteLock runs fn while holding the write lock for key
func (m *KeyLockManager) WithWriteLock(key string, fn func() error) error {
	start := time.Now()
	lock := m.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	err := fn()

	slog.Debug("Write operation completed",
		"kind", m.kind,
		"key", key,
		"duration", time.Since(start).String())
	return err
}

// WithReadLock runs fn while holding the read lock for key
func (m *KeyLockManager) WithReadLock(key string, fn func() error) error {
	lock := m.lockFor(key)
	lock.RLock()
	defer lock.RUnlock()

	return fn()
}

// Forget drops the lock for key once the keyed resource is gone
func (m *KeyLockManager) Forget(key string) {
	m.locksMux.Lock()
	defer m.locksMux.Unlock()
	delete(m.locks, key)
}

// LockStats summarizes a lock manager
type LockStats struct {
	Kind  string `json:"kind"`
	Locks int    `json:"locks"`
}

// Stats returns the number of keys currently holding a lock entry
func (m *KeyLockManager) Stats() LockStats {
	m.locksMux.RLock()
	defer m.locksMux.RUnlock()
	return LockStats{Kind: m.kind, Locks: len(m.locks)}
}
