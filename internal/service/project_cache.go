package service

import "sync"

// projectCache is a bounded FIFO cache for project details. When full, the
// oldest-inserted entry is evicted regardless of access recency. Cleared
// wholesale on every snapshot publish.
type projectCache struct {
	mu      sync.Mutex
	cap     int
	order   []string
	entries map[string]*ProjectDetail
}

func newProjectCache(capacity int) *projectCache {
	return &projectCache{
		cap:     capacity,
		entries: make(map[string]*ProjectDetail, capacity),
	}
}

func (c *projectCache) get(key string) (*ProjectDetail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[key]
	return d, ok
}

func (c *projectCache) put(key string, d *ProjectDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = d
		return
	}
	if len(c.order) == c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.order = append(c.order, key)
	c.entries[key] = d
}

func (c *projectCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = c.order[:0]
	c.entries = make(map[string]*ProjectDetail, c.cap)
}
