package dataset

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a cleaned dataset for a cache key.
type LoadFunc func(ctx context.Context) (*Dataset, error)

// Cache holds cleaned datasets keyed by source identifier for the lifetime of
// the process. Entries are created on first access and removed only by
// Invalidate or Reset. Failed loads are not cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Dataset
	// gens is bumped by Invalidate and Reset; a load only stores its result
	// when the generation it started under is still current.
	gens  map[string]uint64
	group singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]*Dataset{}, gens: map[string]uint64{}}
}

// Get returns the cached dataset for key, calling load on a miss. Concurrent
// misses for the same key share one load, which runs detached from the
// cancellation of whichever caller started it. A caller whose ctx ends while
// waiting gets ctx.Err().
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (*Dataset, error) {
	c.mu.RLock()
	d, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.mu.Lock()
		if d, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return d, nil
		}
		gen := c.gens[key]
		c.gens[key] = gen
		c.mu.Unlock()

		d, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = d
		}
		c.mu.Unlock()
		return d, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Dataset), nil
	}
}

// Cached reports whether key currently holds a dataset.
func (c *Cache) Cached(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Invalidate drops the entry for key. Loads already in flight for key still
// answer their callers but are not stored.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	for k := range c.entries {
		delete(c.entries, k)
	}
	for k := range c.gens {
		c.gens[k]++
		c.group.Forget(k)
	}
	c.mu.Unlock()
}
