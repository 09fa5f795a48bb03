package dashboard

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is the TTL-keyed store in front of the expensive snapshot and
// metric computations. Entries expire after the configured TTL; stale
// entries are never returned. Readers racing an invalidation see either
// the old value or its absence, never a torn value.
type Cache struct {
	lru *expirable.LRU[string, any]
}

func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, any](size, nil, ttl),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Set(key string, value any) {
	c.lru.Add(key, value)
}

// Invalidate removes every key with the given prefix, or every key when
// the pattern is empty. Returns the number of removed entries.
func (c *Cache) Invalidate(pattern string) int {
	if pattern == "" {
		n := c.lru.Len()
		c.lru.Purge()
		return n
	}

	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, pattern) {
			if c.lru.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
