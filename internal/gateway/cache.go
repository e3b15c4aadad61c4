package gateway

import "sync"

// responseCache memoizes successful answers keyed by the exact
// (model, context, question) triple. Capacity is bounded; the
// oldest-inserted entry is evicted first once the ceiling is reached.
type responseCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]string
	order    []string
}

func newResponseCache(capacity int) *responseCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &responseCache{
		capacity: capacity,
		entries:  make(map[string]string),
	}
}

func (c *responseCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *responseCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = value
	c.order = append(c.order, key)
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
