// Package keycache holds an unlocked master key in memory for a bounded,
// sliding window of time.
package keycache

import (
	"sync"
	"time"

	"github.com/allisson/privstore/masterkey"
)

// DefaultTimeout is the expiry window applied when Update is called with a
// zero timeout.
const DefaultTimeout = 60 * time.Second

// Cache is a single-entry TTL cache for an unlocked master key.
//
// Whenever a key is cached, a one-shot expiry timer is armed; a cache hit
// re-arms it, giving the key a sliding lifetime. All mutation happens under
// one mutex, and the timer callback takes the same mutex. Each re-arm bumps a
// generation counter so a stale timer that fires after a concurrent Update or
// reset finds its generation outdated and leaves the live key alone.
type Cache struct {
	mu         sync.Mutex
	key        *masterkey.MasterKey
	timeout    time.Duration
	timer      *time.Timer
	generation uint64
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{timeout: DefaultTimeout}
}

// Get returns the cached key. A hit re-arms the expiry timer with the stored
// timeout.
func (c *Cache) Get() (*masterkey.MasterKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key == nil {
		return nil, false
	}

	c.armLocked()
	return c.key, true
}

// Update caches a key and arms its expiry timer. A zero timeout selects
// DefaultTimeout. Any previously pending timer is cancelled first.
func (c *Cache) Update(key *masterkey.MasterKey, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c.key = key
	c.timeout = timeout
	c.armLocked()
}

// ResetTimeout re-arms the expiry timer with the stored timeout. It is a
// no-op when nothing is cached.
func (c *Cache) ResetTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key == nil {
		return
	}

	c.armLocked()
}

// Clear drops the cached key immediately and cancels the pending timer.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
}

// armLocked cancels the pending timer and schedules a new expiry. Must be
// called with the mutex held.
func (c *Cache) armLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}

	c.generation++
	generation := c.generation
	c.timer = time.AfterFunc(c.timeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		// A concurrent Update or reset re-armed the cache after this timer was
		// scheduled; the key's lifetime now belongs to the newer timer.
		if c.generation != generation {
			return
		}
		c.clearLocked()
	})
}

// clearLocked drops the key and cancels the timer. Must be called with the
// mutex held.
func (c *Cache) clearLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.key = nil
}
