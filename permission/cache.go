package permission

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultTTL is how long a probe result stays trusted before re-probing.
const DefaultTTL = 300 * time.Second

type record struct {
	granted   bool
	checkedAt time.Time
	expiresAt time.Time
}

// Cache remembers the last probe result per permission kind so the
// potentially slow or flaky native query runs at most once per TTL window.
// Safe for concurrent use; one lock guards the whole map.
type Cache struct {
	mu    sync.Mutex
	cache map[Kind]record
	probe Probe
	ttl   time.Duration
	now   func() time.Time
}

// NewCache creates a cache around the given probe. A ttl <= 0 selects
// DefaultTTL.
func NewCache(probe Probe, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		cache: make(map[Kind]record),
		probe: probe,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Check returns the cached grant result for kind, probing natively only when
// no unexpired record exists. The fresh result overwrites any stale record.
func (c *Cache) Check(kind Kind) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if rec, ok := c.cache[kind]; ok && now.Before(rec.expiresAt) {
		return rec.granted, nil
	}

	granted, err := c.probe(kind)
	if err != nil {
		return false, fmt.Errorf("permission probe for %s failed: %w", kind, err)
	}

	c.cache[kind] = record{
		granted:   granted,
		checkedAt: now,
		expiresAt: now.Add(c.ttl),
	}
	log.Printf("Permission: cached %s=%v for %s", kind, granted, c.ttl)
	return granted, nil
}

// Clear drops all records, forcing the next Check of each kind to re-probe.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[Kind]record)
	log.Printf("Permission: cache cleared")
}

// Stats returns the total record count and how many of them have expired.
// Expiry is computed lazily; nothing is removed.
func (c *Cache) Stats() (total, expired int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	total = len(c.cache)
	for _, rec := range c.cache {
		if !now.Before(rec.expiresAt) {
			expired++
		}
	}
	return total, expired
}

// CleanupExpired removes every expired record and returns how many were
// removed. Intended to be driven by a periodic maintenance tick; skipping it
// only costs memory, never correctness.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for kind, rec := range c.cache {
		if !now.Before(rec.expiresAt) {
			delete(c.cache, kind)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("Permission: cleaned up %d expired records", removed)
	}
	return removed
}
