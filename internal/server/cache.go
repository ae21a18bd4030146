package server

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// ForestSource fetches the component forest. *panel.Panel implements it.
type ForestSource interface {
	// Generation changes whenever the agent reports the tree dirty.
	Generation() uint64
	ComponentView(ctx context.Context, query *protocol.ComponentExplorerViewQuery) (protocol.ComponentExplorerView, error)
}

// cacheEntry holds a fetched forest with the generation it was read at.
type cacheEntry struct {
	forest     []protocol.DevToolsNode
	generation uint64
	timestamp  time.Time
}

// ViewCache provides a TTL-based cache for the component forest. An
// entry is also dropped as soon as the source's generation moves.
type ViewCache struct {
	mu    sync.Mutex
	entry *cacheEntry
	ttl   time.Duration
	clock clockwork.Clock
}

// NewViewCache creates a new cache. A ttl of 0 disables caching.
func NewViewCache(ttl time.Duration, clock clockwork.Clock) *ViewCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ViewCache{ttl: ttl, clock: clock}
}

// Forest returns the cached forest if it is fresh, otherwise fetches it.
func (c *ViewCache) Forest(ctx context.Context, src ForestSource) ([]protocol.DevToolsNode, uint64, error) {
	gen := src.Generation()
	if c.ttl > 0 {
		c.mu.Lock()
		if e := c.entry; e != nil && e.generation == gen && c.clock.Since(e.timestamp) < c.ttl {
			c.mu.Unlock()
			return e.forest, gen, nil
		}
		c.mu.Unlock()
	}

	view, err := src.ComponentView(ctx, nil)
	if err != nil {
		return nil, gen, err
	}
	// The fetch itself may have raced a dirty notice; key the entry by
	// the generation seen before it so the next call refetches.
	c.mu.Lock()
	c.entry = &cacheEntry{forest: view.Forest, generation: gen, timestamp: c.clock.Now()}
	c.mu.Unlock()
	return view.Forest, gen, nil
}

// InvalidateAll clears the cache.
func (c *ViewCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
