// Package cache provides a typed in-memory TTL cache on top of go-cache.
// Wizard drafts and in-memory session slots live here.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	c   *gocache.Cache
	ttl time.Duration
}

// New creates a new in-memory cache with the given TTL. Expired entries are
// purged every ttl.
func New[T any](ttl time.Duration) *InMemory[T] {
	return &InMemory[T]{
		c:   gocache.New(ttl, ttl),
		ttl: ttl,
	}
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typed, true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.c.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value with its own TTL. A non-positive ttl falls back
// to the cache default.
func (c *InMemory[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.c.Set(key, value, ttl)
}

// Replace overwrites an existing, unexpired key and refreshes its TTL.
// It returns false when the key is absent.
func (c *InMemory[T]) Replace(key string, value T) bool {
	return c.c.Replace(key, value, gocache.DefaultExpiration) == nil
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.c.Delete(key)
}

// Len returns the number of items, expired ones included until purge.
func (c *InMemory[T]) Len() int {
	return c.c.ItemCount()
}
