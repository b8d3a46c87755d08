package planner

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// CacheStats is a snapshot of the plan cache counters.
type CacheStats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

// Cache stores plans by normalized input. Insertion stops at capacity, so the
// underlying LRU never evicts and a cached plan stays valid for the process lifetime.
type Cache struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, model.Plan]
	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
}

// NewCache returns a cache holding at most capacity plans.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1000
	}
	entries, err := lru.New[string, model.Plan](capacity)
	if err != nil {
		// only reachable with a non-positive size, excluded above
		panic(err)
	}
	return &Cache{entries: entries, capacity: capacity}
}

// Key hashes the lowercased, trimmed input.
func Key(input string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(input))))
	return hex.EncodeToString(sum[:])
}

// Get returns the plan cached for input and records a hit or miss.
func (c *Cache) Get(input string) (model.Plan, bool) {
	p, ok := c.entries.Peek(Key(input))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return p, ok
}

// Put stores the plan unless the cache is full. It reports whether the plan was stored.
func (c *Cache) Put(input string, p model.Plan) bool {
	key := Key(input)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries.Contains(key) {
		return true
	}
	if c.entries.Len() >= c.capacity {
		return false
	}
	c.entries.Add(key, p)
	return true
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := CacheStats{
		Size:     c.entries.Len(),
		Capacity: c.capacity,
		Hits:     hits,
		Misses:   misses,
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}
