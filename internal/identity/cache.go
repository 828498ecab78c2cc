package identity

import (
	"sync"
	"time"
)

// cacheEntry represents a cached profile with expiration
type cacheEntry struct {
	profile    *Profile
	expiration time.Time
}

func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiration)
}

// profileCache is a small TTL cache of verified profiles keyed by user id, so
// a chatty client does not trigger a provider round trip on every request.
type profileCache struct {
	items map[string]*cacheEntry
	mutex sync.RWMutex
	ttl   time.Duration
}

func newProfileCache(ttl time.Duration) *profileCache {
	cache := &profileCache{
		items: make(map[string]*cacheEntry),
		ttl:   ttl,
	}

	// Start cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

func (c *profileCache) set(userID string, profile *Profile) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[userID] = &cacheEntry{
		profile:    profile,
		expiration: time.Now().Add(c.ttl),
	}
}

func (c *profileCache) get(userID string) (*Profile, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.items[userID]
	if !exists || entry.isExpired() {
		return nil, false
	}

	return entry.profile, true
}

// cleanupExpired removes expired entries periodically
func (c *profileCache) cleanupExpired() {
	ticker := time.NewTicker(time.Minute * 5)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		for key, entry := range c.items {
			if entry.isExpired() {
				delete(c.items, key)
			}
		}
		c.mutex.Unlock()
	}
}
