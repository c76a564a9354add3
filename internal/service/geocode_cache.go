package service

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/noah-isme/food-rescue-api/pkg/geo"
)

type sharedCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// cachedPoint is the wire form of a cached resolution; Found=false records a
// confirmed "no result" so the address is not geocoded again.
type cachedPoint struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

func (c cachedPoint) point() *geo.Point {
	if !c.Found {
		return nil
	}
	return &geo.Point{Lat: c.Lat, Lng: c.Lng}
}

// GeocodeCache memoises address resolutions keyed by the exact input string.
// The local tier is an LRU; maxEntries <= 0 keeps every entry for the process
// lifetime. An optional shared tier (Redis) lets replicas reuse lookups.
type GeocodeCache struct {
	mu     sync.Mutex
	local  *lru.Cache
	shared sharedCache
	ttl    time.Duration
}

// NewGeocodeCache builds the cache. shared may be nil.
func NewGeocodeCache(maxEntries int, shared sharedCache, ttl time.Duration) *GeocodeCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &GeocodeCache{local: lru.New(maxEntries), shared: shared, ttl: ttl}
}

// Peek checks only the in-process tier.
func (c *GeocodeCache) Peek(key string) (*geo.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.local.Get(key)
	if !ok {
		return nil, false
	}
	return v.(cachedPoint).point(), true
}

// Get checks the local tier then the shared tier, promoting shared hits.
func (c *GeocodeCache) Get(ctx context.Context, key string) (*geo.Point, bool) {
	if p, ok := c.Peek(key); ok {
		return p, true
	}
	if c.shared == nil || !c.shared.Enabled() {
		return nil, false
	}
	var entry cachedPoint
	hit, err := c.shared.Get(ctx, key, &entry)
	if err != nil || !hit {
		return nil, false
	}
	c.storeLocal(key, entry)
	return entry.point(), true
}

// Put records a resolution; p == nil records a negative result.
func (c *GeocodeCache) Put(ctx context.Context, key string, p *geo.Point) {
	entry := cachedPoint{}
	if p != nil {
		entry = cachedPoint{Found: true, Lat: p.Lat, Lng: p.Lng}
	}
	c.storeLocal(key, entry)
	if c.shared != nil && c.shared.Enabled() {
		// shared tier failures are logged by CacheService
		_ = c.shared.Set(ctx, key, entry, c.ttl)
	}
}

// Len reports the number of local entries.
func (c *GeocodeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local.Len()
}

func (c *GeocodeCache) storeLocal(key string, entry cachedPoint) {
	c.mu.Lock()
	c.local.Add(key, entry)
	c.mu.Unlock()
}
