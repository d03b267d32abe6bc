// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package embedding

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker around the embedding call.
type BreakerConfig struct {
	// Name identifies the breaker in state-change logs.
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that trips the
	// breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns breaker defaults suited to a model-serving
// dependency.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "embedder",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerEmbedder wraps an Embedder with circuit-breaker protection.
// When the model-serving component fails repeatedly, the breaker opens and
// callers fail fast with gobreaker.ErrOpenState instead of piling up on a
// dead dependency.
type BreakerEmbedder struct {
	inner Embedder
	cb    *gobreaker.CircuitBreaker[[]float64]
}

// NewBreakerEmbedder wraps the given embedder.
func NewBreakerEmbedder(inner Embedder, cfg BreakerConfig) *BreakerEmbedder {
	if cfg.Name == "" {
		cfg.Name = "embedder"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}

	return &BreakerEmbedder{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]float64](settings),
	}
}

// Embed invokes the wrapped embedder through the breaker.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return b.cb.Execute(func() ([]float64, error) {
		return b.inner.Embed(ctx, text)
	})
}

// State returns the current breaker state as a string for monitoring.
func (b *BreakerEmbedder) State() string {
	return b.cb.State().String()
}

// Ensure interface compliance.
var (
	_ Embedder = (EmbedderFunc)(nil)
	_ Embedder = (*BreakerEmbedder)(nil)
)
