// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes the result of an expensive deterministic computation by key.
// Entries live as long as the Cache; there is no eviction. Errors are not
// cached, and concurrent misses on the same key share one computation.
type Cache[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
	group  singleflight.Group
	name   func(K) string
}

// NewCache returns an empty cache. name maps keys to the string used to
// coalesce concurrent misses; it must be injective.
func NewCache[K comparable, V any](name func(K) string) *Cache[K, V] {
	return &Cache[K, V]{values: make(map[K]V), name: name}
}

// StringKey is the name function of string keyed caches.
func StringKey(s string) string { return s }

// PointerKey is the name function of caches keyed by identity.
func PointerKey[T any](p *T) string { return fmt.Sprintf("%p", p) }

// Get returns the cached value for key, if any.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]

	return v, ok
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.values)
}

// GetOrCompute returns the cached value for key, calling compute on a miss.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ret, err, _ := c.group.Do(c.name(key), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := compute()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()

		return v, nil
	})
	if err != nil {
		var zero V

		return zero, err
	}

	return ret.(V), nil
}
