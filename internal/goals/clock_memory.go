package goals

import (
	"context"
	"time"

	"finboard/internal/cache"
)

// DefaultMaxTrackedUsers bounds the in-process last-write store.
const DefaultMaxTrackedUsers = 10000

// MemoryClock keeps last-write times in a bounded LRU. Entries live for the
// cooldown, after which they carry no information anyway; evicting an
// active user early only relaxes that user's cooldown.
type MemoryClock struct {
	entries *cache.LRUCache[time.Time]
}

func NewMemoryClock(maxUsers int, cooldown time.Duration) *MemoryClock {
	if maxUsers <= 0 {
		maxUsers = DefaultMaxTrackedUsers
	}
	return &MemoryClock{entries: cache.NewLRUCache[time.Time](maxUsers, cooldown)}
}

func (m *MemoryClock) Update(_ context.Context, userID string, fn func(last time.Time, ok bool) (time.Time, bool)) error {
	m.entries.Update(userID, fn)
	return nil
}

// CleanExpired lets a cache.Manager purge stale users.
func (m *MemoryClock) CleanExpired() int {
	return m.entries.CleanExpired()
}

func (m *MemoryClock) Size() int {
	return m.entries.Size()
}
