package cache

import (
	"sync"
	"time"
)

// Cache is a keyed store partitioned by namespace. TTLs are chosen by the caller.
type Cache interface {
	Get(namespace, key string) (interface{}, bool)
	Set(namespace, key string, value interface{}, ttl time.Duration)
	Delete(namespace, key string)
}

type entry struct {
	value     interface{}
	expiresAt time.Time // zero means no expiry
}

// MemoryCache implements Cache using in-memory storage
type MemoryCache struct {
	mutex sync.RWMutex
	data  map[string]map[string]entry
	now   func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]map[string]entry),
		now:  time.Now,
	}
}

// WithClock replaces the time source, for tests
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

// Get retrieves a value if present and not expired
func (c *MemoryCache) Get(namespace, key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.data[namespace][key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value. A ttl <= 0 keeps the value until it is overwritten.
func (c *MemoryCache) Set(namespace, key string, value interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ns, ok := c.data[namespace]
	if !ok {
		ns = make(map[string]entry)
		c.data[namespace] = ns
	}

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	ns[key] = e
}

// Delete removes a single key
func (c *MemoryCache) Delete(namespace, key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data[namespace], key)
}

// Purge drops expired entries and returns how many were removed
func (c *MemoryCache) Purge() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	removed := 0
	for _, ns := range c.data {
		for k, e := range ns {
			if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
				delete(ns, k)
				removed++
			}
		}
	}
	return removed
}

// Size returns the number of stored entries, including expired ones not yet purged
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	n := 0
	for _, ns := range c.data {
		n += len(ns)
	}
	return n
}
