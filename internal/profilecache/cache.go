// Package profilecache keeps recently normalized profiles keyed by pipeline
// line identifier so repeated analyses of the same line skip parsing and
// normalization. The cache is passed to its users explicitly; there is no
// package-level instance.
package profilecache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// DefaultSize is the number of lines kept when no size is configured
const DefaultSize = 32

// Cache is a bounded, goroutine-safe LRU of normalized profiles.
// Cached profiles are shared and must be treated as read-only.
type Cache struct {
	lru *lru.Cache
}

// New creates a cache holding at most size profiles
func New(size int) (*Cache, error) {
	if size < 1 {
		return nil, fmt.Errorf("cache size must be at least 1, got %d", size)
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached profile for lineID
func (c *Cache) Get(lineID string) (profile.Profile, bool) {
	v, ok := c.lru.Get(lineID)
	if !ok {
		return nil, false
	}
	p, ok := v.(profile.Profile)
	return p, ok
}

// Put stores p under lineID, evicting the least recently used line when full.
// It reports whether an eviction happened.
func (c *Cache) Put(lineID string, p profile.Profile) bool {
	return c.lru.Add(lineID, p)
}

// Remove drops lineID from the cache
func (c *Cache) Remove(lineID string) {
	c.lru.Remove(lineID)
}

// Len returns the number of cached lines
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge empties the cache
func (c *Cache) Purge() {
	c.lru.Purge()
}
