// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

// Package embedding provides the text-to-vector boundary of the
// recommendation core: an Embedder interface implemented by an external
// model-serving component, a TTL-bounded memoization cache keyed by content
// hash, and a circuit-breaker wrapper for the embedding call.
//
// Embedding generation is the one potentially slow, network-facing call in
// the core. The cache avoids redundant model invocations; callers impose
// their own timeout or cancellation through the context.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Embedder produces a fixed-length numeric vector for a text string.
// Implementations must be deterministic for identical text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}

// DefaultTTL is how long cached vectors stay valid.
const DefaultTTL = 5 * time.Minute

// entry is one cached vector with its expiry.
type entry struct {
	vector    []float64
	expiresAt time.Time
}

// Cache memoizes Embedder calls keyed by an identity prefix plus the
// SHA-256 hash of the exact source text, so any text edit is a cache miss
// rather than a stale hit. Entries expire after a fixed TTL and are evicted
// lazily on the next lookup, not proactively.
//
// Cache is safe for concurrent use. Concurrent misses for the same key may
// each invoke the embedder; last write wins, which is acceptable because
// embedding is deterministic for identical text.
type Cache struct {
	embedder Embedder
	ttl      time.Duration
	clock    func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the default entry TTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects a clock for deterministic testing.
func WithClock(clock func() time.Time) CacheOption {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCache creates a cache in front of the given embedder.
func NewCache(embedder Embedder, opts ...CacheOption) *Cache {
	c := &Cache{
		embedder: embedder,
		ttl:      DefaultTTL,
		clock:    time.Now,
		entries:  make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for an identity and its source text.
func Key(identity, text string) string {
	sum := sha256.Sum256([]byte(text))
	return identity + ":" + hex.EncodeToString(sum[:])
}

// Vector returns the cached vector for (identity, text), invoking the
// embedder on a miss or after expiry. Embedder failures propagate to the
// caller unmodified; nothing is cached on failure.
func (c *Cache) Vector(ctx context.Context, identity, text string) ([]float64, error) {
	key := Key(identity, text)
	now := c.clock()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		if now.Before(e.expiresAt) {
			return e.vector, nil
		}
		// Expired: evict lazily before regenerating.
		c.mu.Lock()
		if cur, still := c.entries[key]; still && !now.Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{vector: vector, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()

	return vector, nil
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every cached entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
