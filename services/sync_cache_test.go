package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncCache_FreshWithinTTL(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewSyncCache(5 * time.Minute)
	cache.SetNowFunc(func() time.Time { return current })

	assert.False(t, cache.Fresh("user_1"), "unknown id must not be fresh")

	cache.MarkSynced("user_1")
	assert.True(t, cache.Fresh("user_1"))

	current = current.Add(4 * time.Minute)
	assert.True(t, cache.Fresh("user_1"), "still inside the TTL window")

	current = current.Add(2 * time.Minute)
	assert.False(t, cache.Fresh("user_1"), "TTL elapsed")
}

func TestSyncCache_MarkSyncedResetsWindow(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewSyncCache(5 * time.Minute)
	cache.SetNowFunc(func() time.Time { return current })

	cache.MarkSynced("user_1")
	current = current.Add(4 * time.Minute)
	cache.MarkSynced("user_1")
	current = current.Add(4 * time.Minute)

	assert.True(t, cache.Fresh("user_1"), "second MarkSynced must restart the window")
}

func TestSyncCache_Forget(t *testing.T) {
	cache := NewSyncCache(5 * time.Minute)

	cache.MarkSynced("user_1")
	cache.Forget("user_1")

	assert.False(t, cache.Fresh("user_1"))
	assert.Equal(t, 0, cache.Len())
}

func TestSyncCache_Cleanup(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewSyncCache(5 * time.Minute)
	cache.SetNowFunc(func() time.Time { return current })

	cache.MarkSynced("old_1")
	cache.MarkSynced("old_2")
	current = current.Add(6 * time.Minute)
	cache.MarkSynced("fresh_1")

	removed := cache.Cleanup()

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, cache.Len())
	assert.True(t, cache.Fresh("fresh_1"))
}

func TestNewSyncCache_DefaultTTL(t *testing.T) {
	cache := NewSyncCache(0)
	assert.Equal(t, DefaultSyncCacheTTL, cache.ttl)

	cache = NewSyncCache(-time.Minute)
	assert.Equal(t, DefaultSyncCacheTTL, cache.ttl)
}
