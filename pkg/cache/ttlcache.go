// Package cache implements a small TTL- and capacity-bounded in-memory
// cache, adapted from the objects-cache module's heap-based eviction
// design. Here it backs a log-suppression cache instead of a generic
// object store.
package cache

import (
	"container/heap"
	"sync"
	"time"
)

type entry struct {
	key        string
	expiryTime time.Time
}

// NewSuppressionCache creates a cache that remembers up to maxItems keys
// for ttl, evicting the earliest-expiring entry when full.
func NewSuppressionCache(maxItems int, ttl time.Duration) *SuppressionCache {
	h := make(entryHeap, 0)
	heap.Init(&h)
	return &SuppressionCache{
		maxItems: maxItems,
		ttl:      ttl,
		index:    map[string]*entry{},
		evictionHeap: h,
	}
}

// SuppressionCache answers "have I already logged this key recently?" so
// a noisy remote peer (repeated malformed frames, repeated unknown
// commands) produces one warning per TTL window instead of one per
// frame. Grounded on objects-cache's ObjectsCache, whose Put/evict/Get
// logic this mirrors.
type SuppressionCache struct {
	mu sync.Mutex

	maxItems int
	ttl      time.Duration

	index        map[string]*entry
	evictionHeap entryHeap
}

// ShouldLog reports whether key has NOT been seen within the TTL window,
// and, if so, marks it seen for the next window. The first call for any
// key always returns true.
func (c *SuppressionCache) ShouldLog(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.index[key]; ok {
		if now.Before(e.expiryTime) {
			return false
		}
		c.remove(key)
	}

	if len(c.index) >= c.maxItems {
		c.evictOne()
	}

	e := &entry{key: key, expiryTime: now.Add(c.ttl)}
	c.index[key] = e
	heap.Push(&c.evictionHeap, e)
	return true
}

func (c *SuppressionCache) evictOne() {
	if len(c.evictionHeap) == 0 {
		return
	}
	evicted := heap.Pop(&c.evictionHeap).(*entry)
	delete(c.index, evicted.key)
}

func (c *SuppressionCache) remove(key string) {
	for i, e := range c.evictionHeap {
		if e.key == key {
			heap.Remove(&c.evictionHeap, i)
			break
		}
	}
	delete(c.index, key)
}

// entryHeap implements container/heap, ordered by soonest expiry first.
type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].expiryTime.Before(h[j].expiryTime) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(v any) {
	*h = append(*h, v.(*entry))
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
