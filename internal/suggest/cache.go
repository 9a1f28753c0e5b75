package suggest

import (
	"sync"
	"time"
)

// seedCache holds the store-derived seed groups between orchestration calls.
// It replaces the process-wide query cache of earlier designs: the engine owns
// it, entries expire after a TTL, and pruning invalidates it explicitly.
type seedCache struct {
	mu      sync.Mutex
	groups  []seedGroup
	expires time.Time
}

func (c *seedCache) get() ([]seedGroup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.groups == nil || time.Now().After(c.expires) {
		return nil, false
	}
	return c.groups, true
}

func (c *seedCache) set(groups []seedGroup, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = groups
	c.expires = time.Now().Add(ttl)
}

func (c *seedCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = nil
}

// Invalidate drops the cached seed groups; called whenever stored records
// change underneath the engine.
func (e *Engine) Invalidate() {
	e.cache.invalidate()
}
