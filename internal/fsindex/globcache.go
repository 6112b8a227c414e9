package fsindex

import "sync"

// globCacheCapacity bounds the number of compiled glob patterns kept warm.
const globCacheCapacity = 128

// compiledGlob is a pre-validated doublestar pattern. doublestar.Match
// re-parses the pattern string on every call, so caching buys us pattern
// validation, not a reusable matcher object - but it still lets list/glob
// skip the "does this pattern even compile" error path on repeat queries.
type compiledGlob struct {
	pattern string
}

func (g compiledGlob) match(relPath string) bool {
	ok, _ := doublestarMatch(g.pattern, relPath)
	return ok
}

// globCache is a bounded, concurrency-safe cache of compiled glob patterns.
// Eviction on overflow is arbitrary (whichever key map iteration visits
// first), not LRU.
type globCache struct {
	mu       sync.Mutex
	m        map[string]compiledGlob
	capacity int
}

func newGlobCache(capacity int) *globCache {
	return &globCache{m: make(map[string]compiledGlob, capacity), capacity: capacity}
}

func (c *globCache) get(pattern string) (compiledGlob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.m[pattern]
	return g, ok
}

func (c *globCache) compile(pattern string) (compiledGlob, error) {
	if g, ok := c.get(pattern); ok {
		return g, nil
	}
	if err := doublestarValidate(pattern); err != nil {
		return compiledGlob{}, err
	}
	g := compiledGlob{pattern: pattern}
	c.mu.Lock()
	if len(c.m) >= c.capacity {
		for k := range c.m {
			delete(c.m, k)
			break
		}
	}
	c.m[pattern] = g
	c.mu.Unlock()
	return g, nil
}
