package render

import (
	"container/list"
	"sync"
)

// Cache is an LRU of rendered PDFs keyed by plan ID and style. Each entry also
// records the user label it was drawn with; a lookup with another label misses.
type Cache struct {
	capacity int
	items    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	label string
	value []byte
}

// NewCache creates a cache holding at most capacity documents. Capacity < 1 disables caching.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

func cacheKey(planID string, style Style) string {
	return planID + "|" + style.String()
}

// Get returns the cached PDF for a plan and style rendered with label.
// An entry drawn with a different label is dropped.
func (c *Cache) Get(planID string, style Style, label string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(planID, style)
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if entry.label != label {
		c.lru.Remove(elem)
		delete(c.items, key)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return entry.value, true
}

// Set stores a rendered PDF, evicting the least recently used entry when full.
func (c *Cache) Set(planID string, style Style, label string, pdf []byte) {
	if c.capacity < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(planID, style)
	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.label, entry.value = label, pdf
		return
	}
	c.items[key] = c.lru.PushFront(&cacheEntry{key: key, label: label, value: pdf})

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Evict drops every style of a plan.
func (c *Cache) Evict(planID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, style := range []Style{StylePlain, StyleStyled} {
		key := cacheKey(planID, style)
		if elem, ok := c.items[key]; ok {
			c.lru.Remove(elem)
			delete(c.items, key)
		}
	}
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
