package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"ocr-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Entry is a single cached value with its bookkeeping timestamps.
// Immutable after insertion except for LastAccessedAt and its position
// in the recency list.
type Entry struct {
	Key            string
	Value          string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	SizeBytes      int
}

// LRU is a bounded in-memory cache with TTL expiry and least-recently-used
// eviction. A single mutex serializes Get, Put and Sweep so the recency
// splice and the map update always happen as one atomic unit.
type LRU struct {
	mu       sync.Mutex
	entries  map[string]*list.Element // key -> element holding *Entry
	order    *list.List               // front = most recently used
	capacity int
	ttl      time.Duration

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
	sets        atomic.Int64
}

// New creates a cache bounded to capacity entries whose entries expire
// ttl after insertion. Capacity must be at least 1.
func New(capacity int, ttl time.Duration) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	log.Infof("%s In-memory LRU cache created (capacity: %d, ttl: %v)", logcolors.LogCacheInit, capacity, ttl)
	return &LRU{
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns the value for key and whether it was present. Expired entries
// are removed on sight and reported as misses. A hit moves the entry to the
// front of the recency list and refreshes its access timestamp.
func (c *LRU) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return "", false
	}

	entry := elem.Value.(*Entry)
	if c.expired(entry, time.Now()) {
		c.remove(elem)
		c.expirations.Add(1)
		c.misses.Add(1)
		return "", false
	}

	entry.LastAccessedAt = time.Now()
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return entry.Value, true
}

// Put inserts or replaces the value for key, stamping CreatedAt with the
// current time. When the cache is full the least-recently-used entry is
// evicted first; Put itself never fails.
func (c *LRU) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*Entry)
		entry.Value = value
		entry.CreatedAt = now
		entry.LastAccessedAt = now
		entry.SizeBytes = len(key) + len(value)
		c.order.MoveToFront(elem)
		c.sets.Add(1)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictLRU()
	}

	entry := &Entry{
		Key:            key,
		Value:          value,
		CreatedAt:      now,
		LastAccessedAt: now,
		SizeBytes:      len(key) + len(value),
	}
	c.entries[key] = c.order.PushFront(entry)
	c.sets.Add(1)
}

// Sweep removes every entry older than the TTL as of now and returns how
// many were removed. Called by the background sweeper and opportunistically
// safe to call at any time.
func (c *LRU) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*Entry), now) {
			c.remove(elem)
			removed++
		}
		elem = prev
	}

	if removed > 0 {
		c.expirations.Add(int64(removed))
	}
	return removed
}

// Delete removes key if present.
func (c *LRU) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

// Clear discards every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.capacity)
	c.order.Init()
	log.Infof("%s Cache cleared", logcolors.LogCacheClear)
}

// Len returns the number of live entries, counting entries that have
// expired but not yet been swept.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// SizeBytes returns the approximate memory footprint of all cached values.
func (c *LRU) SizeBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := 0
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		size += elem.Value.(*Entry).SizeBytes
	}
	return size
}

// Stats holds cache performance counters.
type Stats struct {
	Entries     int     `json:"entries"`
	Capacity    int     `json:"capacity"`
	TTLSeconds  int     `json:"ttl_seconds"`
	SizeBytes   int     `json:"size_bytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate_percent"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	Sets        int64   `json:"sets"`
}

// Snapshot returns a point-in-time view of the cache counters.
func (c *LRU) Snapshot() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses) * 100
	}

	return Stats{
		Entries:     c.Len(),
		Capacity:    c.capacity,
		TTLSeconds:  int(c.ttl.Seconds()),
		SizeBytes:   c.SizeBytes(),
		Hits:        hits,
		Misses:      misses,
		HitRate:     hitRate,
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
		Sets:        c.sets.Load(),
	}
}

// StartSweeper launches the background goroutine that sweeps expired
// entries on the given interval. The returned function stops it.
func (c *LRU) StartSweeper(interval time.Duration) (stop func()) {
	stopChan := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if removed := c.Sweep(time.Now()); removed > 0 {
					log.Infof("%s Removed %d expired entries", logcolors.LogCacheSweep, removed)
				}
			case <-stopChan:
				return
			}
		}
	}()

	log.Infof("%s Started background sweeper with interval %v", logcolors.LogCacheSweep, interval)
	return func() {
		close(stopChan)
		wg.Wait()
	}
}

// expired reports whether entry's age exceeds the TTL at now.
// Callers must hold the mutex.
func (c *LRU) expired(entry *Entry, now time.Time) bool {
	return now.Sub(entry.CreatedAt) > c.ttl
}

// evictLRU drops the entry at the back of the recency list.
// Callers must hold the mutex.
func (c *LRU) evictLRU() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	c.remove(elem)
	c.evictions.Add(1)
	log.Debugf("%s LRU eviction: cache at capacity (%d)", logcolors.LogCache, c.capacity)
}

// remove unlinks elem from both the recency list and the key map.
// Callers must hold the mutex.
func (c *LRU) remove(elem *list.Element) {
	entry := elem.Value.(*Entry)
	delete(c.entries, entry.Key)
	c.order.Remove(elem)
}
