package groq

import (
	"context"
	"sync"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// CachedInsighter wraps an Insighter with an in-memory LRU cache keyed by
// hotspot ID. Hotspot IDs are deterministic over the input data, so a cache
// hit means the same cluster was analyzed before and the stored insight is
// still valid.
type CachedInsighter struct {
	inner domain.Insighter
	cache *lruCache
}

// NewCachedInsighter creates a cache decorator around an insighter.
func NewCachedInsighter(inner domain.Insighter, maxEntries int) *CachedInsighter {
	return &CachedInsighter{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedInsighter) HotspotInsight(ctx context.Context, s domain.HotspotSummary) (domain.Insight, error) {
	if insight, ok := c.cache.get(s.HotspotID); ok {
		return insight, nil
	}
	insight, err := c.inner.HotspotInsight(ctx, s)
	if err != nil {
		return insight, err
	}
	c.cache.put(s.HotspotID, insight)
	return insight, nil
}

// lruCache is a simple thread-safe LRU cache for insights.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Insight
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Insight, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Insight{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Insight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
