package snapshot

import (
	"sync"
	"time"

	"cardwatch/internal/detect"
	"cardwatch/internal/task"
)

// Entry is the last successful extraction: the task tree, the order
// fingerprint that produced it, and the daily record it belongs to. Entries
// live for the process lifetime only and are never persisted; on any
// disagreement with the store, the store wins.
type Entry struct {
	DailyID    string
	Tasks      []task.Task
	Order      []detect.Class
	Meta       task.DailyMeta
	CapturedAt time.Time
}

// Cache holds at most one entry behind a mutex. The frame loop and CLI read
// concurrently with the background worker's writes.
type Cache struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Set replaces the cached entry. The entry is deep-copied so later caller
// mutations cannot leak in.
func (c *Cache) Set(e Entry) {
	copied := copyEntry(e)
	c.mu.Lock()
	c.entry = &copied
	c.mu.Unlock()
}

// Get returns a deep copy of the cached entry, if any.
func (c *Cache) Get() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return copyEntry(*c.entry), true
}

// Has reports whether any entry is cached.
func (c *Cache) Has() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry != nil
}

// HasFor reports whether the cached entry belongs to the given daily record.
// A cache carried over from a previous day must not feed the fast path.
func (c *Cache) HasFor(dailyID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry != nil && c.entry.DailyID == dailyID
}

// Invalidate drops the cached entry. Called before every slow-path
// extraction so a failed run cannot leave a stale fast path behind.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

func copyEntry(e Entry) Entry {
	out := e
	out.Tasks = task.CloneAll(e.Tasks)
	if e.Order != nil {
		out.Order = make([]detect.Class, len(e.Order))
		copy(out.Order, e.Order)
	}
	return out
}
