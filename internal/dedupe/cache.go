// Package dedupe suppresses repeat submissions of the same URL within a
// time window.
package dedupe

import (
	"sync"
	"time"
)

// Clock returns the current instant. Implementations must return times that
// carry a monotonic reading (time.Now does).
type Clock interface {
	Now() time.Time
}

// Config controls the cache bound.
//   - MaxEntries: upper bound on tracked URLs; <= 0 leaves the cache unbounded.
type Config struct {
	MaxEntries int
}

// Cache maps normalized URLs to the instant their suppression ends. It is
// safe for concurrent use; every ShouldSubmit call runs as one critical
// section.
type Cache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	clock   Clock
	cfg     Config
}

// New builds an empty Cache.
func New(clock Clock, cfg Config) *Cache {
	return &Cache{
		entries: make(map[string]time.Time),
		clock:   clock,
		cfg:     cfg,
	}
}

// ShouldSubmit reports whether url may be submitted now and, if so, starts a
// new suppression window of length ttl for it. A ttl <= 0 disables
// deduplication and leaves the cache untouched.
func (c *Cache) ShouldSubmit(url string, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.pruneLocked(now)

	if expiresAt, ok := c.entries[url]; ok && expiresAt.After(now) {
		return false
	}

	if c.cfg.MaxEntries > 0 && len(c.entries) >= c.cfg.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[url] = now.Add(ttl)
	return true
}

// Len returns the number of tracked entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) pruneLocked(now time.Time) {
	for url, expiresAt := range c.entries {
		if !expiresAt.After(now) {
			delete(c.entries, url)
		}
	}
}

// evictOldestLocked removes the entry closest to expiry.
func (c *Cache) evictOldestLocked() {
	var (
		oldestURL string
		oldestAt  time.Time
		found     bool
	)
	for url, expiresAt := range c.entries {
		if !found || expiresAt.Before(oldestAt) {
			oldestURL, oldestAt, found = url, expiresAt, true
		}
	}
	if found {
		delete(c.entries, oldestURL)
	}
}
