package cache

import (
	"log/slog"
	"sync"
	"time"
)

// entry is a cached value with its expiration time
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a thread-safe map whose entries expire after a fixed TTL.
// With sliding expiry every successful Get pushes the deadline out again.
type TTLCache[V any] struct {
	name          string
	items         map[string]*entry[V]
	mutex         sync.RWMutex
	ttl           time.Duration
	sliding       bool
	now           func() time.Time
	onEvict       func(key string)
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// Option configures a cache
type Option func(*options)

type options struct {
	sliding bool
	now     func() time.Time
	onEvict func(key string)
}

// WithSlidingExpiry renews an entry's TTL whenever it is read
func WithSlidingExpiry() Option {
	return func(o *options) { o.sliding = true }
}

// WithEvictionCallback registers fn to run, outside the cache lock, for
// every key the cleanup removes because it expired. Explicit deletes do not
// trigger it.
func WithEvictionCallback(fn func(key string)) Option {
	return func(o *options) { o.onEvict = fn }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewTTLCache creates a cache and starts its cleanup goroutine. Call Stop to
// release it.
func NewTTLCache[V any](name string, ttl, cleanupInterval time.Duration, opts ...Option) *TTLCache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &TTLCache[V]{
		name:        name,
		items:       make(map[string]*entry[V]),
		ttl:         ttl,
		sliding:     o.sliding,
		now:         o.now,
		onEvict:     o.onEvict,
		stopCleanup: make(chan struct{}),
	}

	c.cleanupTicker = time.NewTicker(cleanupInterval)
	go c.cleanupExpiredEntries()

	slog.Info("TTL cache initialized",
		"cache", name,
		"ttl", ttl.String(),
		"sliding", o.sliding,
		"cleanup_interval", cleanupInterval.String())

	return c
}

// Set stores a value with a fresh TTL
func (c *TTLCache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	expiresAt := c.now().Add(c.ttl)
	c.items[key] = &entry[V]{value: value, expiresAt: expiresAt}

	slog.Debug("Cache entry set",
		"cache", c.name,
		"key", key,
		"expires_at", expiresAt.Format(time.RFC3339))
}

// Get returns the value for key if present and not expired
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V

	// Sliding reads renew the deadline, so they need the write lock
	if c.sliding {
		c.mutex.Lock()
		defer c.mutex.Unlock()
	} else {
		c.mutex.RLock()
		defer c.mutex.RUnlock()
	}

	e, exists := c.items[key]
	if !exists {
		return zero, false
	}

	now := c.now()
	if now.After(e.expiresAt) {
		slog.Debug("Cache entry expired", "cache", c.name, "key", key)
		return zero, false
	}
	if c.sliding {
		e.expiresAt = now.Add(c.ttl)
	}

	slog.Debug("Cache hit", "cache", c.name, "key", key)
	return e.value, true
}

// Delete removes key and reports whether a live entry was removed
func (c *TTLCache[V]) Delete(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, exists := c.items[key]
	delete(c.items, key)
	slog.Debug("Cache entry deleted", "cache", c.name, "key", key)
	return exists && !c.now().After(e.expiresAt)
}

// Size returns the current number of items in the cache (including expired ones)
func (c *TTLCache[V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// ActiveSize returns the number of non-expired items in the cache
func (c *TTLCache[V]) ActiveSize() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	active := 0
	for _, e := range c.items {
		if !now.After(e.expiresAt) {
			active++
		}
	}
	return active
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (c *TTLCache[V]) Stop() {
	c.stopOnce.Do(func() {
		c.cleanupTicker.Stop()
		close(c.stopCleanup)
		slog.Info("TTL cache stopped", "cache", c.name)
	})
}

// cleanupExpiredEntries runs periodically to remove expired entries
func (c *TTLCache[V]) cleanupExpiredEntries() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.performCleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

// performCleanup removes expired entries from the cache
func (c *TTLCache[V]) performCleanup() {
	c.mutex.Lock()
	now := c.now()
	var evicted []string
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			evicted = append(evicted, key)
		}
	}
	remaining := len(c.items)
	c.mutex.Unlock()

	if len(evicted) == 0 {
		return
	}
	slog.Debug("Cache cleanup completed",
		"cache", c.name,
		"expired_entries", len(evicted),
		"remaining_entries", remaining)

	if c.onEvict != nil {
		for _, key := range evicted {
			c.onEvict(key)
		}
	}
}

// Stats is a point-in-time summary of a cache
type Stats struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Active  int    `json:"active"`
	TTL     string `json:"ttl"`
	Sliding bool   `json:"sliding"`
}

// Stats returns cache statistics. Expired entries count until the next
// cleanup.
func (c *TTLCache[V]) Stats() Stats {
	return Stats{
		Name:    c.name,
		Entries: c.Size(),
		Active:  c.ActiveSize(),
		TTL:     c.ttl.String(),
		Sliding: c.sliding,
	}
}
