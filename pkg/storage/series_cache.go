package storage

import (
	"container/list"
	"sync"
	"time"

	"trends-go/pkg/trends"
)

// cacheItem represents an item in the series cache
type cacheItem struct {
	key       string
	series    *trends.TrendSeries
	timestamp time.Time
	element   *list.Element
}

// SeriesCache is an LRU cache for fetched trend series, keyed by request
// identity. TTL is optional; the default is a process-lifetime cache with
// unbounded staleness.
type SeriesCache struct {
	maxSize int
	items   map[string]*cacheItem
	lruList *list.List
	mu      sync.RWMutex
	ttl     time.Duration
}

// NewSeriesCache creates a series cache holding at most maxSize entries.
func NewSeriesCache(maxSize int) *SeriesCache {
	return NewSeriesCacheWithTTL(maxSize, 0) // No TTL by default
}

// NewSeriesCacheWithTTL creates a series cache whose entries expire after
// ttl. A zero ttl disables expiry.
func NewSeriesCacheWithTTL(maxSize int, ttl time.Duration) *SeriesCache {
	return &SeriesCache{
		maxSize: maxSize,
		items:   make(map[string]*cacheItem),
		lruList: list.New(),
		ttl:     ttl,
	}
}

// Set adds or replaces the series stored under key. The write is atomic per
// key: readers see either the previous series or the new one, never a mix.
func (sc *SeriesCache) Set(key string, series *trends.TrendSeries) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := time.Now()

	if item, exists := sc.items[key]; exists {
		item.series = series
		item.timestamp = now
		sc.lruList.MoveToFront(item.element)
		return
	}

	item := &cacheItem{
		key:       key,
		series:    series,
		timestamp: now,
	}
	item.element = sc.lruList.PushFront(item)
	sc.items[key] = item

	if len(sc.items) > sc.maxSize {
		sc.evictOldest()
	}
}

// Get retrieves the series stored under key, if present and unexpired.
func (sc *SeriesCache) Get(key string) (*trends.TrendSeries, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	item, exists := sc.items[key]
	if !exists {
		return nil, false
	}

	if sc.ttl > 0 && time.Since(item.timestamp) > sc.ttl {
		sc.deleteItem(item)
		return nil, false
	}

	sc.lruList.MoveToFront(item.element)
	return item.series, true
}

// Delete removes the series stored under key.
func (sc *SeriesCache) Delete(key string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if item, exists := sc.items[key]; exists {
		sc.deleteItem(item)
	}
}

// Size returns the current number of cached series.
func (sc *SeriesCache) Size() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.items)
}

// evictOldest removes the least recently used entry.
func (sc *SeriesCache) evictOldest() {
	element := sc.lruList.Back()
	if element != nil {
		sc.deleteItem(element.Value.(*cacheItem))
	}
}

// deleteItem removes an item from both map and list.
func (sc *SeriesCache) deleteItem(item *cacheItem) {
	delete(sc.items, item.key)
	sc.lruList.Remove(item.element)
}
