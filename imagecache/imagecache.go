// Package imagecache keeps recently captured screen regions in memory so
// repeated selections of the same area skip the rasterizer entirely.
//
// The cache is bounded two ways: entries expire after a TTL, and the
// aggregate payload size never exceeds a byte budget. Under size pressure the
// oldest entries by capture time are evicted first — deliberately
// FIFO-by-age, not LRU: an entry hit many times is still evicted before a
// newer one, matching the reference behavior this cache preserves.
package imagecache

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"vely-capture/geometry"
)

const (
	// DefaultTTL is how long a captured region stays servable.
	DefaultTTL = 30 * time.Second
	// DefaultMaxBytes bounds the aggregate encoded payload size.
	DefaultMaxBytes = 50 * 1024 * 1024
)

// ErrInvalidBounds wraps geometry failures so callers can distinguish a bad
// selection from a rasterizer failure.
var ErrInvalidBounds = errors.New("invalid capture bounds")

// CaptureFunc is the external rasterizer collaborator. It receives clamped,
// validated bounds and returns an encoded image.
type CaptureFunc func(bounds geometry.Bounds) ([]byte, error)

type entry struct {
	payload   []byte
	createdAt time.Time
	sizeBytes int
}

// Cache maps normalized capture geometry to encoded image payloads.
// Safe for concurrent use; one lock guards the whole map, and the capture
// callback runs while it is held, so concurrent callers of the same region
// rasterize once.
type Cache struct {
	mu       sync.Mutex
	cache    map[geometry.Key]entry
	ttl      time.Duration
	maxBytes int
	now      func() time.Time
}

// New creates a cache. Non-positive ttl or maxBytes select the defaults.
func New(ttl time.Duration, maxBytes int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{
		cache:    make(map[geometry.Key]entry),
		ttl:      ttl,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// GetOrCapture normalizes raw bounds and returns the cached payload for the
// resulting key, invoking capture only on a miss or after TTL expiry. Hits
// return a copy; the cached payload is never exposed for mutation. A capture
// failure leaves the cache unchanged.
func (c *Cache) GetOrCapture(raw geometry.Bounds, screenWidth, screenHeight int, capture CaptureFunc) ([]byte, error) {
	key, err := geometry.Normalize(raw, screenWidth, screenHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if cached, ok := c.cache[key]; ok {
		if now.Sub(cached.createdAt) < c.ttl {
			log.Printf("ImageCache: hit for %s", key)
			return clone(cached.payload), nil
		}
		log.Printf("ImageCache: entry for %s expired", key)
		delete(c.cache, key)
	}

	payload, err := capture(key.Bounds())
	if err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}

	c.admit(key, payload, now)
	return clone(payload), nil
}

// admit inserts a fresh entry, evicting oldest-by-capture-time entries first
// until the byte budget holds. Called with the lock held.
func (c *Cache) admit(key geometry.Key, payload []byte, now time.Time) {
	size := len(payload)
	if c.totalBytes()+size > c.maxBytes {
		c.evictOldest(size)
	}
	c.cache[key] = entry{
		payload:   clone(payload),
		createdAt: now,
		sizeBytes: size,
	}
	log.Printf("ImageCache: stored %s (%d bytes, %d entries)", key, size, len(c.cache))
}

func (c *Cache) totalBytes() int {
	total := 0
	for _, e := range c.cache {
		total += e.sizeBytes
	}
	return total
}

func (c *Cache) evictOldest(needed int) {
	type aged struct {
		key geometry.Key
		at  time.Time
	}
	entries := make([]aged, 0, len(c.cache))
	for k, e := range c.cache {
		entries = append(entries, aged{key: k, at: e.createdAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	freed := 0
	evicted := 0
	for _, a := range entries {
		freed += c.cache[a.key].sizeBytes
		delete(c.cache, a.key)
		evicted++
		if freed >= needed {
			break
		}
	}
	log.Printf("ImageCache: evicted %d entries, freed %d bytes", evicted, freed)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[geometry.Key]entry)
	log.Printf("ImageCache: cleared")
}

// Stats returns the entry count, aggregate payload bytes, and how many
// entries have outlived the TTL. Expiry is computed lazily.
func (c *Cache) Stats() (entries, totalBytes, expired int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for _, e := range c.cache {
		totalBytes += e.sizeBytes
		if now.Sub(e.createdAt) >= c.ttl {
			expired++
		}
	}
	return len(c.cache), totalBytes, expired
}

// CleanupExpired removes all entries past their TTL and returns the count.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.cache {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.cache, k)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("ImageCache: cleaned up %d expired entries", removed)
	}
	return removed
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
