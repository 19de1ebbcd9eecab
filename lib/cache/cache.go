// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache provides a TTL-expiring memoization map for badge
// results. The member-count pipeline itself holds no mutable state; the
// cache sits outside it, keyed by (host, room), so that a README full of
// badge images doesn't turn every page view into a homeserver
// registration.
package cache

import (
	"sync"
	"time"

	"github.com/babolivier/shields/lib/clock"
)

// sweepThreshold is the entry count above which a Put walks the map and
// drops expired entries. Expiry is otherwise lazy (checked on Get), so
// without the sweep a burst of one-off keys would pin memory forever.
const sweepThreshold = 1024

// Cache is a TTL-expiring map from string keys to values of type V.
// Safe for concurrent use. Concurrent misses for the same key are not
// coalesced: both callers recompute and the later Put wins, which is
// acceptable for an idempotent read.
type Cache[V any] struct {
	ttl   time.Duration
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value   V
	expires time.Time
}

// New creates a cache whose entries live for ttl. A zero or negative
// ttl disables caching: Get always misses.
func New[V any](ttl time.Duration, clk clock.Clock) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c.ttl <= 0 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.clock.Now().After(cached.expires) {
		delete(c.entries, key)
		return zero, false
	}
	return cached.value, true
}

// Put stores value under key for the cache's TTL, replacing any
// existing entry.
func (c *Cache[V]) Put(key string, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if len(c.entries) >= sweepThreshold {
		for k, cached := range c.entries {
			if now.After(cached.expires) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = entry[V]{value: value, expires: now.Add(c.ttl)}
}

// Len returns the number of stored entries, including any not yet
// swept. Used by tests and metrics.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
