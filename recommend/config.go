// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// DefaultK is the default number of recommendations to return.
	// Default: 10.
	DefaultK int `json:"default_k" koanf:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 100.
	MaxK int `json:"max_k" koanf:"max_k"`

	// MinSimilarity is the neighbor similarity threshold for collaborative
	// voting. Neighbors below it are discarded.
	// Default: 0.1.
	MinSimilarity float64 `json:"min_similarity" koanf:"min_similarity"`

	// ContentWeight is the default content weight for hybrid blending.
	// Default: 0.5.
	ContentWeight float64 `json:"content_weight" koanf:"content_weight"`

	// CollaborativeWeight is the default collaborative weight for hybrid
	// blending.
	// Default: 0.5.
	CollaborativeWeight float64 `json:"collaborative_weight" koanf:"collaborative_weight"`

	// Cache contains result caching parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`
}

// CacheConfig contains result caching parameters.
type CacheConfig struct {
	// Enabled controls whether result caching is active.
	// Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is how long cached responses stay valid.
	// Default: 5m.
	TTL time.Duration `json:"ttl" koanf:"ttl"`

	// MaxEntries triggers eviction of expired entries when reached.
	// Default: 1000.
	MaxEntries int `json:"max_entries" koanf:"max_entries"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultK:            10,
		MaxK:                100,
		MinSimilarity:       0.1,
		ContentWeight:       0.5,
		CollaborativeWeight: 0.5,
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DefaultK <= 0 {
		return fmt.Errorf("default_k must be positive, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max_k (%d) must be >= default_k (%d)", c.MaxK, c.DefaultK)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be in [0, 1], got %f", c.MinSimilarity)
	}
	if c.ContentWeight < 0 {
		return fmt.Errorf("content_weight must be non-negative, got %f", c.ContentWeight)
	}
	if c.CollaborativeWeight < 0 {
		return fmt.Errorf("collaborative_weight must be non-negative, got %f", c.CollaborativeWeight)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive when caching is enabled, got %s", c.Cache.TTL)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
