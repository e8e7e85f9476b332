package services

import (
	"sync"
	"time"

	"authsync-platform/internal/observability/metrics"
)

// DefaultSyncCacheTTL bounds how long a successful sync suppresses further
// storage writes for the same identity.
const DefaultSyncCacheTTL = 5 * time.Minute

// SyncCache remembers when each identity was last written to storage so
// that repeated syncs inside the TTL window (one per authenticated page
// load, typically) collapse into a single write burst. Entries are only
// removed by Cleanup or Forget; cardinality is bounded by the number of
// distinct active users, one timestamp each.
type SyncCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewSyncCache(ttl time.Duration) *SyncCache {
	if ttl <= 0 {
		ttl = DefaultSyncCacheTTL
	}
	return &SyncCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetNowFunc overrides the cache clock. Tests use this to step through TTL
// expiry deterministically.
func (c *SyncCache) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Fresh reports whether id was successfully synced within the TTL window.
func (c *SyncCache) Fresh(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	syncedAt, ok := c.entries[id]
	if !ok {
		return false
	}
	return c.now().Sub(syncedAt) < c.ttl
}

// MarkSynced records a successful sync for id. Callers must only invoke it
// after storage writes succeeded; a failed sync leaves the entry untouched
// so the next trigger retries fully.
func (c *SyncCache) MarkSynced(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = c.now()
	metrics.SetSyncCacheSize(len(c.entries))
}

// Forget drops the entry for id, used after account deletion.
func (c *SyncCache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)
	metrics.SetSyncCacheSize(len(c.entries))
}

// Cleanup removes expired entries and returns how many were dropped. The
// cache works correctly without it; it only reclaims memory in long-lived
// processes.
func (c *SyncCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, syncedAt := range c.entries {
		if now.Sub(syncedAt) >= c.ttl {
			delete(c.entries, id)
			removed++
		}
	}
	metrics.SetSyncCacheSize(len(c.entries))
	return removed
}

// Len returns the current number of entries.
func (c *SyncCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
