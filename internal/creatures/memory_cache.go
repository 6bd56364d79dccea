package creatures

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the in-process fallback used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	names   []string
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && !c.now().Before(e.expires)) {
		return nil, false, nil
	}
	return append([]string(nil), e.names...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, names []string, ttl time.Duration) error {
	e := memoryEntry{names: append([]string(nil), names...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}
