package cache

import (
	"container/list"
	"sync"

	"github.com/8r2y5/guilded/errors"
)

// fifoEntry is one keyed entry in insertion order.
type fifoEntry[V any] struct {
	key   string
	value V
}

// fifoCache is a thread-safe capacity-bounded store that evicts the
// first-inserted entry once the bound is exceeded. Unlike an LRU, reads do
// not affect eviction order, and overwriting an existing key keeps its
// original insertion slot.
type fifoCache[V any] struct {
	mu      sync.RWMutex
	maxSize int
	items   map[string]*list.Element // key -> list element
	order   *list.List               // front = newest insert, back = oldest
	stats   *Statistics
	metrics *cacheMetrics
	evictFn EvictCallback[V]
}

// newFIFOCache creates a new FIFO store with the given bound.
// Returns an error if metrics registration fails when requested.
func newFIFOCache[V any](maxSize int, opts *cacheOptions[V]) (*fifoCache[V], error) {
	var metrics *cacheMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "newFIFOCache", "metrics registration")
		}
	}

	return &fifoCache[V]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		stats:   NewStatistics(),
		metrics: metrics,
		evictFn: opts.evictCallback,
	}, nil
}

// Get retrieves a value by key. Reads never change insertion order.
func (c *fifoCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	element, exists := c.items[key]
	var value V
	if exists {
		value = element.Value.(*fifoEntry[V]).value
	}
	c.mu.RUnlock()

	if exists {
		c.stats.Hit()
		if c.metrics != nil {
			c.metrics.recordHit()
		}
	} else {
		c.stats.Miss()
		if c.metrics != nil {
			c.metrics.recordMiss()
		}
	}

	return value, exists
}

// Set stores a value under key. A new key is appended to the insertion
// order and, if the store then exceeds its bound, the oldest-inserted entry
// is evicted. Overwriting an existing key replaces the value in place.
func (c *fifoCache[V]) Set(key string, value V) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	var evicted *fifoEntry[V]

	c.mu.Lock()
	if element, exists := c.items[key]; exists {
		element.Value.(*fifoEntry[V]).value = value
		c.mu.Unlock()

		c.stats.Set()
		if c.metrics != nil {
			c.metrics.recordSet()
		}
		return false, nil
	}

	c.items[key] = c.order.PushFront(&fifoEntry[V]{key: key, value: value})
	if len(c.items) > c.maxSize {
		oldest := c.order.Back()
		entry := oldest.Value.(*fifoEntry[V])
		delete(c.items, entry.key)
		c.order.Remove(oldest)
		evicted = entry
	}
	size := len(c.items)
	c.mu.Unlock()

	c.stats.Set()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordSet()
		c.metrics.updateSize(size)
	}
	if evicted != nil {
		c.stats.Eviction()
		if c.metrics != nil {
			c.metrics.recordEviction()
		}
		// Callback runs outside the lock to prevent deadlock
		if c.evictFn != nil {
			c.evictFn(evicted.key, evicted.value)
		}
	}

	return true, nil
}

// Delete removes an entry by key.
func (c *fifoCache[V]) Delete(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	element, exists := c.items[key]
	if exists {
		delete(c.items, key)
		c.order.Remove(element)
	}
	size := len(c.items)
	c.mu.Unlock()

	if exists {
		c.stats.Delete()
		c.stats.UpdateSize(int64(size))
		if c.metrics != nil {
			c.metrics.recordDelete()
			c.metrics.updateSize(size)
		}
	}

	return exists, nil
}

// Clear removes all entries.
func (c *fifoCache[V]) Clear() error {
	c.mu.Lock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.updateSize(0)
	}

	return nil
}

// Size returns the current number of entries.
func (c *fifoCache[V]) Size() int {
	c.mu.RLock()
	size := len(c.items)
	c.mu.RUnlock()
	return size
}

// Keys returns all keys in insertion order, oldest first.
func (c *fifoCache[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for element := c.order.Back(); element != nil; element = element.Prev() {
		keys = append(keys, element.Value.(*fifoEntry[V]).key)
	}
	return keys
}

// Stats returns the store's statistics tracker.
func (c *fifoCache[V]) Stats() *Statistics {
	return c.stats
}
