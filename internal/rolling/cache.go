package rolling

import (
	"fmt"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Stats supplies rolling statistics of one fixed series.
// Returned slices are shared and must be treated as read-only.
type Stats interface {
	Mean(window int) ([]float64, error)
	MeanStd(window int) (mean, std []float64, err error)
}

// Direct computes statistics on every call.
type Direct struct {
	values []float64
}

// NewDirect wraps a series without memoisation.
func NewDirect(values []float64) *Direct {
	return &Direct{values: values}
}

// Mean implements Stats.
func (d *Direct) Mean(window int) ([]float64, error) {
	return Mean(d.values, window)
}

// MeanStd implements Stats.
func (d *Direct) MeanStd(window int) ([]float64, []float64, error) {
	return MeanStd(d.values, window)
}

var _ Stats = (*Direct)(nil)

// meanStdPair is the cached value for MeanStd.
type meanStdPair struct {
	mean []float64
	std  []float64
}

// Cache memoises rolling statistics per window for one series.
// Safe for concurrent use; concurrent misses on the same key compute once.
// Sweep cells sharing a window (e.g. every z-threshold of one rolling period)
// reuse the same read-only slices.
type Cache struct {
	values []float64
	items  *gocache.Cache
	group  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache over values. Entries never expire; the cache
// lives as long as one sweep.
func NewCache(values []float64) *Cache {
	return &Cache{
		values: values,
		items:  gocache.New(gocache.NoExpiration, 0),
	}
}

// Mean implements Stats.
func (c *Cache) Mean(window int) ([]float64, error) {
	v, err := c.load(fmt.Sprintf("mean|%d", window), func() (interface{}, error) {
		return Mean(c.values, window)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// MeanStd implements Stats.
func (c *Cache) MeanStd(window int) ([]float64, []float64, error) {
	v, err := c.load(fmt.Sprintf("meanstd|%d", window), func() (interface{}, error) {
		mean, std, err := MeanStd(c.values, window)
		if err != nil {
			return nil, err
		}
		return meanStdPair{mean: mean, std: std}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	pair := v.(meanStdPair)
	return pair.mean, pair.std, nil
}

// Hits returns how many lookups were served from the cache.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns how many lookups computed a value.
func (c *Cache) Misses() int64 { return c.misses.Load() }

// load returns the cached value for key or computes it once.
// Errors are not cached.
func (c *Cache) load(key string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.items.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.items.Get(key); ok {
			return v, nil
		}
		c.misses.Add(1)
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.items.Set(key, v, gocache.NoExpiration)
		return v, nil
	})
	return v, err
}

var _ Stats = (*Cache)(nil)
