package cache

import "sync"

// LRU is a fixed-capacity cache that evicts the least recently used entry.
//
// LRU must not be copied after creation (has mutex).
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	list     lruList[K, V]
	capacity int
	onEvict  func(K, V)
	stats    Stats
}

// New creates a cache holding at most capacity entries.
// A capacity of 0 means unlimited.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: max(capacity, 0),
	}
}

// OnEvict sets the function called for entries pushed out by Add or
// dropped by Purge. Remove does not call it.
func (c *LRU[K, V]) OnEvict(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	c.list.moveToFront(node)
	return node.value, true
}

// Peek returns the value for key without touching its recency.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		return node.value, true
	}
	var zero V
	return zero, false
}

// Add stores value under key, replacing any previous value, and evicts
// the least recently used entries while the cache is over capacity.
// It reports whether an entry was evicted.
func (c *LRU[K, V]) Add(key K, value V) bool {
	c.mu.Lock()
	if node, ok := c.entries[key]; ok {
		node.value = value
		c.list.moveToFront(node)
		c.mu.Unlock()
		return false
	}
	c.entries[key] = c.list.pushFront(key, value)

	var evicted []*lruNode[K, V]
	for c.capacity > 0 && c.list.len > c.capacity {
		oldest := c.list.back()
		c.list.unlink(oldest)
		delete(c.entries, oldest.key)
		c.stats.Evictions++
		evicted = append(evicted, oldest)
	}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, n := range evicted {
			fn(n.key, n.value)
		}
	}
	return len(evicted) > 0
}

// Remove drops key from the cache and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.list.unlink(node)
	delete(c.entries, key)
	return true
}

// Purge drops every entry, calling the eviction function for each, oldest
// first.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	var dropped []*lruNode[K, V]
	for n := c.list.back(); n != nil; n = n.prev {
		dropped = append(dropped, n)
	}
	c.entries = make(map[K]*lruNode[K, V])
	c.list = lruList[K, V]{}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, n := range dropped {
			fn(n.key, n.value)
		}
	}
}

// Keys returns the keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.list.len)
	for n := c.list.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Len returns the number of entries in the cache.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.len
}

// Capacity returns the maximum number of entries, 0 for unlimited.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Len = c.list.len
	s.Capacity = c.capacity
	return s
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the maximum number of entries, 0 for unlimited.
	Capacity int
	// Hits is the number of Get calls that found their key.
	Hits uint64
	// Misses is the number of Get calls that did not.
	Misses uint64
	// Evictions is the number of entries pushed out by Add.
	Evictions uint64
}
