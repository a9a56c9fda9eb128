package codepilot

import "sync"

// QueryCache is a capacity-bounded map from exact query string to its
// normalized vector. Eviction is insertion-order (FIFO), matching the
// cache's role as a cheap optimization: repeated identical queries
// skip the embedding call, everything else recomputes. The cache is
// safe for concurrent use by multiple searches.
type QueryCache struct {
	mu       sync.Mutex
	capacity int
	vectors  map[string][]float32
	order    []string
}

// DefaultQueryCacheSize bounds the cache when no capacity is configured.
const DefaultQueryCacheSize = 100

// NewQueryCache creates a cache holding at most capacity entries.
func NewQueryCache(capacity int) *QueryCache {
	if capacity <= 0 {
		capacity = DefaultQueryCacheSize
	}
	return &QueryCache{
		capacity: capacity,
		vectors:  make(map[string][]float32, capacity),
	}
}

// Get returns the cached vector for query, if present.
func (c *QueryCache) Get(query string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vector, ok := c.vectors[query]
	return vector, ok
}

// Put stores the vector for query, evicting the oldest-inserted entry
// when the cache is full. Re-putting an existing query only refreshes
// its vector; it does not change the eviction order.
func (c *QueryCache) Put(query string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.vectors[query]; exists {
		c.vectors[query] = vector
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.vectors, oldest)
	}

	c.vectors[query] = vector
	c.order = append(c.order, query)
}

// Len returns the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vectors)
}
