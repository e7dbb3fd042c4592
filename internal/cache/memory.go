package cache

import (
	"sync"
	"time"
)

type entry struct {
	data      any
	timestamp time.Time
}

// memoryTier lives as long as the process. Validity is judged by the
// caller; this type only stores.
type memoryTier struct {
	mu    sync.Mutex
	items map[string]entry
}

func newMemoryTier() *memoryTier {
	return &memoryTier{items: make(map[string]entry)}
}

func (c *memoryTier) get(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	return e, ok
}

func (c *memoryTier) set(key string, e entry) {
	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
}

func (c *memoryTier) delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *memoryTier) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
