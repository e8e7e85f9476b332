package pglock

import (
	"fmt"
	"hash/fnv"

	"gorm.io/gorm"
)

// Locker wraps PostgreSQL session-level advisory locks. Locks are released
// automatically when the session's connection closes, so a crashed process
// never leaves a lock behind.
type Locker struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Locker {
	return &Locker{db: db}
}

// NameKey maps a lock name to the int64 key space advisory locks use.
// Same name, same key, across processes and restarts.
func NameKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

// TryLock attempts to acquire the advisory lock for name without blocking.
// acquired=false means another session holds it.
func (l *Locker) TryLock(name string) (acquired bool, err error) {
	key := NameKey(name)
	result := l.db.Raw("SELECT pg_try_advisory_lock(?)", key).Scan(&acquired)
	if result.Error != nil {
		return false, fmt.Errorf("pglock: try lock %q: %w", name, result.Error)
	}
	return acquired, nil
}

// Unlock releases the advisory lock for name. released=false means this
// session did not hold it.
func (l *Locker) Unlock(name string) (released bool, err error) {
	key := NameKey(name)
	result := l.db.Raw("SELECT pg_advisory_unlock(?)", key).Scan(&released)
	if result.Error != nil {
		return false, fmt.Errorf("pglock: unlock %q: %w", name, result.Error)
	}
	return released, nil
}
