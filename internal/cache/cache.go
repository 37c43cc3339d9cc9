// Package cache provides an optional read-through cache for score records
// and NAV series, keyed by (fund, as-of date). The scoring engine is
// correct with the cache entirely disabled: every method on a nil *Cache
// is a no-op, so callers never branch on whether caching is on.
package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// DataClass selects the TTL applied to an entry.
type DataClass string

const (
	ClassScore DataClass = "score"
	ClassNav   DataClass = "nav"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Cache is an in-memory TTL cache with msgpack-encoded values.
type Cache struct {
	mu   sync.RWMutex
	data map[string]entry
	ttl  map[DataClass]time.Duration
	log  zerolog.Logger
}

// New creates a cache with per-class TTLs.
func New(scoreTTL, navTTL time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		data: make(map[string]entry),
		ttl: map[DataClass]time.Duration{
			ClassScore: scoreTTL,
			ClassNav:   navTTL,
		},
		log: log.With().Str("component", "cache").Logger(),
	}
}

// Key builds the canonical cache key for a fund and as-of date.
func Key(fundID string, asOf time.Time) string {
	return fundID + "@" + asOf.UTC().Format("2006-01-02")
}

// Set stores a value under the given class's TTL.
func (c *Cache) Set(class DataClass, key string, value interface{}) {
	if c == nil {
		return
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to encode cache value")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[string(class)+":"+key] = entry{
		data:    data,
		expires: time.Now().Add(c.ttl[class]),
	}
}

// Get loads a value into out. Returns false on miss, expiry, or decode
// failure; a false return always leaves out untouched or zeroed, never
// partially filled from a stale entry.
func (c *Cache) Get(class DataClass, key string, out interface{}) bool {
	if c == nil {
		return false
	}

	c.mu.RLock()
	e, ok := c.data[string(class)+":"+key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expires) {
		return false
	}

	if err := msgpack.Unmarshal(e.data, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to decode cache value")
		return false
	}
	return true
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(class DataClass, key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, string(class)+":"+key)
}

// Purge removes all expired entries. Called periodically by the scheduler.
func (c *Cache) Purge() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for k, e := range c.data {
		if now.After(e.expires) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries (including not-yet-purged
// expired ones).
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
