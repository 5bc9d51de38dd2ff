package results

import (
	"sync"

	"github.com/docsift/docsift/internal/entity"
)

// Cache memoizes one aggregation, keyed by a caller-supplied version of
// the underlying extraction set (e.g. job id + fetch count). Callers bump
// the version whenever the set changes instead of relying on framework
// dependency tracking.
type Cache struct {
	mu      sync.Mutex
	version string
	valid   bool
	results []entity.DocumentResult
}

// Get returns the cached aggregation for version, computing it once per
// version change.
func (c *Cache) Get(version string, compute func() []entity.DocumentResult) []entity.DocumentResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.version == version {
		return c.results
	}
	c.results = compute()
	c.version = version
	c.valid = true
	return c.results
}

// Invalidate drops the cached aggregation regardless of version.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.results = nil
}
