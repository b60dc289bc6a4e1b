package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"retail-dashboard-api/internal/cache"
)

// fakeClock is advanced manually by tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// TestTTLCache_BasicOperations tests basic cache operations
func TestTTLCache_BasicOperations(t *testing.T) {
	// Arrange
	ttlCache := cache.NewTTLCache[string]("test", time.Minute, 30*time.Second)
	defer ttlCache.Stop()

	// Act
	ttlCache.Set("draft-1", "value")
	retrieved, exists := ttlCache.Get("draft-1")

	// Assert
	assert.True(t, exists, "Key should exist in cache")
	assert.Equal(t, "value", retrieved)

	_, exists = ttlCache.Get("missing")
	assert.False(t, exists)
}

// TestTTLCache_Delete tests deleting items from cache
func TestTTLCache_Delete(t *testing.T) {
	ttlCache := cache.NewTTLCache[int]("test", time.Minute, 30*time.Second)
	defer ttlCache.Stop()

	ttlCache.Set("k", 1)

	assert.True(t, ttlCache.Delete("k"))
	assert.False(t, ttlCache.Delete("k"), "second delete finds nothing")
	_, exists := ttlCache.Get("k")
	assert.False(t, exists)
}

// TestTTLCache_Expiration tests that entries expire after the TTL
func TestTTLCache_Expiration(t *testing.T) {
	// Arrange
	clock := newFakeClock()
	ttlCache := cache.NewTTLCache[string]("test", time.Minute, time.Hour, cache.WithClock(clock.Now))
	defer ttlCache.Stop()
	ttlCache.Set("k", "v")

	// Act
	clock.Advance(59 * time.Second)
	_, beforeExpiry := ttlCache.Get("k")
	clock.Advance(2 * time.Second)
	_, afterExpiry := ttlCache.Get("k")

	// Assert
	assert.True(t, beforeExpiry)
	assert.False(t, afterExpiry)
	assert.Equal(t, 1, ttlCache.Size(), "expired entries stay until cleanup")
	assert.Equal(t, 0, ttlCache.ActiveSize())
}

// TestTTLCache_SlidingExpiry tests that reads renew the deadline
func TestTTLCache_SlidingExpiry(t *testing.T) {
	clock := newFakeClock()
	ttlCache := cache.NewTTLCache[string]("drafts", time.Minute, time.Hour,
		cache.WithSlidingExpiry(), cache.WithClock(clock.Now))
	defer ttlCache.Stop()
	ttlCache.Set("k", "v")

	for i := 0; i < 5; i++ {
		clock.Advance(45 * time.Second)
		_, ok := ttlCache.Get("k")
		assert.True(t, ok, "read %d renews the entry", i)
	}

	clock.Advance(61 * time.Second)
	_, ok := ttlCache.Get("k")
	assert.False(t, ok)
}

// TestTTLCache_CleanupRemovesExpired tests the background cleanup
func TestTTLCache_CleanupRemovesExpired(t *testing.T) {
	ttlCache := cache.NewTTLCache[string]("test", 20*time.Millisecond, 10*time.Millisecond)
	defer ttlCache.Stop()

	ttlCache.Set("a", "1")
	ttlCache.Set("b", "2")

	assert.Eventually(t, func() bool { return ttlCache.Size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestTTLCache_Stats(t *testing.T) {
	clock := newFakeClock()
	ttlCache := cache.NewTTLCache[int]("test", time.Minute, time.Hour, cache.WithClock(clock.Now))
	defer ttlCache.Stop()

	ttlCache.Set("old", 1)
	clock.Advance(90 * time.Second)
	ttlCache.Set("new", 2)

	stats := ttlCache.Stats()
	assert.Equal(t, cache.Stats{Name: "test", Entries: 2, Active: 1, TTL: "1m0s"}, stats)
}

func TestTTLCache_EvictionCallback(t *testing.T) {
	// Arrange
	evicted := make(chan string, 4)
	ttlCache := cache.NewTTLCache[int]("test", 20*time.Millisecond, 10*time.Millisecond,
		cache.WithEvictionCallback(func(key string) { evicted <- key }))
	defer ttlCache.Stop()

	// Act
	ttlCache.Set("expiring", 1)
	ttlCache.Set("deleted", 2)
	ttlCache.Delete("deleted")

	// Assert
	select {
	case key := <-evicted:
		assert.Equal(t, "expiring", key)
	case <-time.After(time.Second):
		t.Fatal("expired entry was not reported")
	}
	assert.Never(t, func() bool { return len(evicted) > 0 }, 50*time.Millisecond, 10*time.Millisecond,
		"explicit deletes are not evictions")
}

func TestTTLCache_StopIsIdempotent(t *testing.T) {
	ttlCache := cache.NewTTLCache[string]("test", time.Minute, time.Second)

	assert.NotPanics(t, func() {
		ttlCache.Stop()
		ttlCache.Stop()
	})
}

// TestTTLCache_ConcurrentAccess tests thread safety
func TestTTLCache_ConcurrentAccess(t *testing.T) {
	ttlCache := cache.NewTTLCache[int]("test", time.Minute, time.Second, cache.WithSlidingExpiry())
	defer ttlCache.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%5))
			ttlCache.Set(key, n)
			ttlCache.Get(key)
			ttlCache.ActiveSize()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, ttlCache.Size())
}
