package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the byte-level cache the task service uses. Implementations treat
// backend failures as misses.
//
// Invalidation is by version: callers embed Version(key) in their entry keys
// and Bump(key) on writes, so a fill computed before a Bump lands under a
// version nobody reads again.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	// Version reports the current version of key, zero if never bumped.
	// ok is false when the backend cannot answer.
	Version(ctx context.Context, key string) (v int64, ok bool)
	Bump(ctx context.Context, key string)
}

// sweepEvery bounds how many writes may pass between expired-entry sweeps.
const sweepEvery = 256

// Cache is an in-process TTL cache for single-replica deployments.
type Cache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	m        map[string]entry
	versions map[string]int64
	writes   int
	now      func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:      ttl,
		m:        make(map[string]entry),
		versions: make(map[string]int64),
		now:      time.Now,
	}
}

// Get returns a copy of the cached value.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.exp) {
		return nil, false
	}

	return append([]byte(nil), e.val...), true
}

func (c *Cache) Set(_ context.Context, key string, val []byte) {
	now := c.now()
	e := entry{val: append([]byte(nil), val...), exp: now.Add(c.ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.m[key] = e

	c.writes++
	if c.writes >= sweepEvery {
		c.writes = 0
		c.sweepLocked(now)
	}
}

func (c *Cache) Version(_ context.Context, key string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[key], true
}

func (c *Cache) Bump(_ context.Context, key string) {
	c.mu.Lock()
	c.versions[key]++
	c.mu.Unlock()
}

// size counts entries, expired ones included until the next sweep.
func (c *Cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Cache) sweepLocked(now time.Time) {
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
}
