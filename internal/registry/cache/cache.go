// Package cache holds the lazily built, explicitly invalidated registry index.
package cache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"intake/internal/registry/models"
)

// Source builds a fresh snapshot. Implementations must not fail; an
// unavailable source is reported through Snapshot.Err.
type Source interface {
	Load(ctx context.Context) *models.Snapshot
}

// Cache memoizes the snapshot produced by a Source until Invalidate is called.
//
// Readers never lock: the built snapshot is published through an atomic
// pointer and is immutable. Concurrent callers that find no snapshot share a
// single build per invalidation generation.
type Cache struct {
	source Source

	current atomic.Pointer[models.Snapshot]
	group   singleflight.Group

	mu         sync.Mutex // guards generation and publication into current
	generation uint64
}

// New constructs an empty cache over source.
func New(source Source) *Cache {
	return &Cache{source: source}
}

// Get returns the current snapshot, building it on first use.
func (c *Cache) Get(ctx context.Context) *models.Snapshot {
	if snap := c.current.Load(); snap != nil {
		return snap
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	v, _, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		if snap := c.current.Load(); snap != nil {
			return snap, nil
		}
		// The build is shared by every waiter, so one caller's cancellation
		// must not cut it short.
		snap := c.source.Load(context.WithoutCancel(ctx))
		if snap == nil {
			snap = models.NewSnapshot(nil, "", time.Now())
		}

		c.mu.Lock()
		if c.generation == gen {
			c.current.Store(snap)
		}
		c.mu.Unlock()
		return snap, nil
	})
	return v.(*models.Snapshot)
}

// Invalidate drops the current snapshot; the next Get rebuilds from the
// source. A build already in flight completes for its waiters but is not kept.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.current.Store(nil)
	c.mu.Unlock()
}

// Peek returns the current snapshot without building it, or nil.
func (c *Cache) Peek() *models.Snapshot {
	return c.current.Load()
}

// Generation returns how many times the cache has been invalidated.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
