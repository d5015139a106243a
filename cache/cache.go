package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is used when New is given a capacity <= 0.
const DefaultCapacity = 256

// EvictFunc is called for every value that leaves the cache through
// eviction, Delete or Clear. It runs after the cache lock is released and
// may call back into the cache.
type EvictFunc[K comparable, V any] func(key K, value V)

// Cache is a thread-safe LRU cache with a fixed capacity.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*entry[K, V]
	lru      lruList[K]
	capacity int
	onEvict  EvictFunc[K, V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

type evicted[K comparable, V any] struct {
	key   K
	value V
}

// New creates a cache holding at most capacity entries. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict EvictFunc[K, V]) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[K, V]{
		entries:  make(map[K]*entry[K, V]),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get returns the cached value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	var value V
	e, ok := c.entries[key]
	if ok {
		c.lru.MoveToFront(e.node)
		value = e.value
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return value, false
	}
	c.hits.Add(1)
	return value, true
}

// Set stores value under key. A value it replaces is passed to the
// eviction hook, so do not Set a value that is already cached.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	var out []evicted[K, V]
	if e, ok := c.entries[key]; ok {
		out = append(out, evicted[K, V]{key, e.value})
		e.value = value
		c.lru.MoveToFront(e.node)
	} else {
		out = c.insert(key, value)
	}
	c.mu.Unlock()
	c.release(out)
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs under the cache lock, so concurrent callers never create
// the same key twice. A create error is returned and nothing is stored.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.node)
		value := e.value
		c.mu.Unlock()
		c.hits.Add(1)
		return value, nil
	}
	c.misses.Add(1)

	value, err := create()
	if err != nil {
		c.mu.Unlock()
		var zero V
		return zero, err
	}
	out := c.insert(key, value)
	c.mu.Unlock()
	c.release(out)
	return value, nil
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.lru.Remove(e.node)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if ok {
		c.release([]evicted[K, V]{{key, e.value}})
	}
	return ok
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	out := make([]evicted[K, V], 0, len(c.entries))
	for k, e := range c.entries {
		out = append(out, evicted[K, V]{k, e.value})
	}
	c.entries = make(map[K]*entry[K, V])
	c.lru.Clear()
	c.mu.Unlock()
	c.release(out)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Stats returns a snapshot of the cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		HitRate:   rate,
		Evictions: c.evictions.Load(),
	}
}

// ResetStats zeroes the hit, miss and eviction counters.
func (c *Cache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

// insert adds a new entry, evicting the oldest ones first.
// Caller must hold c.mu.
func (c *Cache[K, V]) insert(key K, value V) []evicted[K, V] {
	var out []evicted[K, V]
	for c.lru.Len() >= c.capacity {
		oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		out = append(out, evicted[K, V]{oldest, c.entries[oldest].value})
		delete(c.entries, oldest)
		c.evictions.Add(1)
	}
	c.entries[key] = &entry[K, V]{value: value, node: c.lru.PushFront(key)}
	return out
}

func (c *Cache[K, V]) release(out []evicted[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range out {
		c.onEvict(e.key, e.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	HitRate   float64
	Evictions uint64
}
