// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

// Package config loads the application configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/SingasonSimon/bookgenie/logging"
	"github.com/SingasonSimon/bookgenie/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bookgenie/config.yaml",
	"/etc/bookgenie/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config is the full application configuration.
type Config struct {
	// Engine configures the recommendation engine.
	Engine recommend.Config `koanf:"engine"`

	// Embedding configures the vector cache and its circuit breaker.
	Embedding EmbeddingConfig `koanf:"embedding"`

	// Feedback configures the feedback learning loop.
	Feedback FeedbackConfig `koanf:"feedback"`

	// Logging configures structured logging.
	Logging logging.Config `koanf:"logging"`
}

// EmbeddingConfig configures the vector cache and circuit breaker.
type EmbeddingConfig struct {
	// CacheTTL is how long cached vectors stay valid.
	// Default: 5m.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// BreakerTimeout is how long the circuit breaker stays open before
	// probing the embedder again.
	// Default: 30s.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`

	// BreakerFailures is the consecutive-failure count that trips the
	// breaker.
	// Default: 5.
	BreakerFailures int `koanf:"breaker_failures"`
}

// FeedbackConfig configures the feedback learning loop.
type FeedbackConfig struct {
	// Store selects the impression store backend: "memory" or "badger".
	// Default: "memory".
	Store string `koanf:"store"`

	// StorePath is the BadgerDB directory when Store is "badger".
	// Default: "/data/feedback".
	StorePath string `koanf:"store_path"`

	// RetrainThreshold is the resolved-feedback count per family at
	// which retraining is suggested.
	// Default: 10.
	RetrainThreshold int `koanf:"retrain_threshold"`
}

// defaultConfig returns a Config with all defaults applied.
func defaultConfig() *Config {
	return &Config{
		Engine: *recommend.DefaultConfig(),
		Embedding: EmbeddingConfig{
			CacheTTL:        5 * time.Minute,
			BreakerTimeout:  30 * time.Second,
			BreakerFailures: 5,
		},
		Feedback: FeedbackConfig{
			Store:            "memory",
			StorePath:        "/data/feedback",
			RetrainThreshold: 10,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Embedding.CacheTTL <= 0 {
		return fmt.Errorf("embedding cache_ttl must be positive, got %s", c.Embedding.CacheTTL)
	}
	if c.Embedding.BreakerFailures <= 0 {
		return fmt.Errorf("embedding breaker_failures must be positive, got %d", c.Embedding.BreakerFailures)
	}
	switch c.Feedback.Store {
	case "memory", "badger":
	default:
		return fmt.Errorf("feedback store must be \"memory\" or \"badger\", got %q", c.Feedback.Store)
	}
	if c.Feedback.Store == "badger" && c.Feedback.StorePath == "" {
		return fmt.Errorf("feedback store_path is required for the badger store")
	}
	if c.Feedback.RetrainThreshold <= 0 {
		return fmt.Errorf("feedback retrain_threshold must be positive, got %d", c.Feedback.RetrainThreshold)
	}
	return nil
}

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment noise cannot
// pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Engine mappings
		"engine_default_k":            "engine.default_k",
		"engine_max_k":                "engine.max_k",
		"engine_min_similarity":       "engine.min_similarity",
		"engine_content_weight":       "engine.content_weight",
		"engine_collaborative_weight": "engine.collaborative_weight",
		"engine_cache_enabled":        "engine.cache.enabled",
		"engine_cache_ttl":            "engine.cache.ttl",
		"engine_cache_max_entries":    "engine.cache.max_entries",

		// Embedding mappings
		"embedding_cache_ttl":        "embedding.cache_ttl",
		"embedding_breaker_timeout":  "embedding.breaker_timeout",
		"embedding_breaker_failures": "embedding.breaker_failures",

		// Feedback mappings
		"feedback_store":             "feedback.store",
		"feedback_store_path":        "feedback.store_path",
		"feedback_retrain_threshold": "feedback.retrain_threshold",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
