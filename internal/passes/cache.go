package passes

import (
	"sync"
	"time"
)

// CacheTTL is how far simulated time may move before a cached plan is
// recomputed.
const CacheTTL = time.Hour

// Cache holds one plan per object for a single site. Plans are dropped
// when the site changes or when the clock leaves their TTL.
type Cache struct {
	mu      sync.RWMutex
	opts    Options
	site    string
	plans   map[string]*Plan
	lastErr error
}

// NewCache returns an empty cache computing plans with opts.
func NewCache(opts Options) *Cache {
	return &Cache{opts: opts, plans: make(map[string]*Plan)}
}

// Plan returns the plan for name at jd as seen from site, computing it
// with s if the cached one is missing or stale.
func (c *Cache) Plan(s Sampler, site, name string, jd float64) (*Plan, error) {
	if p := c.lookup(site, name, jd); p != nil {
		return p, nil
	}

	p, err := Compute(s, name, jd, c.opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		return nil, err
	}
	if site != c.site {
		c.site = site
		c.plans = make(map[string]*Plan)
	}
	c.plans[name] = p
	return p, nil
}

func (c *Cache) lookup(site, name string, jd float64) *Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	if site != c.site {
		return nil
	}
	p, ok := c.plans[name]
	if !ok {
		return nil
	}
	if d := jd - p.GeneratedAt; d < -days(CacheTTL) || d > days(CacheTTL) {
		return nil
	}
	// Statuses follow the clock within the TTL.
	Classify(p.Passes, jd)
	return p
}

// Len returns the number of cached plans.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}

// Err returns the error of the last computation, if it failed.
func (c *Cache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Clear removes every cached plan.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.plans = make(map[string]*Plan)
	c.mu.Unlock()
}
