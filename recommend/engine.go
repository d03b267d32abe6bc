// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SingasonSimon/bookgenie/embedding"
)

// Note: this package has no dependencies on the storage layer. The
// DataProvider interface lets the caller wire any backing store without
// creating circular imports.

// Engine produces hybrid recommendations by combining semantic retrieval
// with collaborative filtering. It is safe for concurrent use.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	provider DataProvider
	vectors  *embedding.Cache
	clock    func() time.Time

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
}

// cacheEntry holds a cached recommendation response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock injects a clock for deterministic testing.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEngine creates a hybrid recommendation engine. The vector cache may be
// nil, in which case the content path is skipped and recommendations are
// purely collaborative.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, provider DataProvider, vectors *embedding.Cache, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}

	e := &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		provider: provider,
		vectors:  vectors,
		clock:    time.Now,
		cache:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Recommend generates hybrid recommendations for a user.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := e.clock()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	if resp := e.tryGetCachedResponse(req, start, logger); resp != nil {
		return resp, nil
	}

	matrix, items, err := e.buildMatrix(ctx)
	if err != nil {
		return nil, err
	}
	if matrix == nil {
		logger.Debug().Msg("empty interaction universe")
		return e.emptyResponse(req, start), nil
	}

	// Component result sets are oversized relative to K so the blend has
	// enough overlap to work with.
	pool := 2 * req.K

	collaborative := Collaborative(matrix, req.UserID, pool, e.config.MinSimilarity)

	content, err := e.contentResults(ctx, req.UserID, matrix, items, pool)
	if err != nil {
		return nil, fmt.Errorf("content retrieval: %w", err)
	}

	blended := Blend(content, collaborative, req.ContentWeight, req.CollaborativeWeight, req.K)

	resp := &Response{
		Results: blended,
		Metadata: ResponseMetadata{
			RequestID:          req.RequestID,
			UserID:             req.UserID,
			ContentCount:       len(content),
			CollaborativeCount: len(collaborative),
			LatencyMS:          e.clock().Sub(start).Milliseconds(),
			Timestamp:          e.clock(),
		},
	}
	e.cacheResponse(req, resp)

	logger.Debug().
		Int("content", len(content)).
		Int("collaborative", len(collaborative)).
		Int("returned", len(blended)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// SimilarUsers returns the k users most similar to the given user by
// affinity-row cosine similarity.
func (e *Engine) SimilarUsers(ctx context.Context, userID, k int) ([]Neighbor, error) {
	if k <= 0 {
		k = e.config.DefaultK
	}
	matrix, _, err := e.buildMatrix(ctx)
	if err != nil {
		return nil, err
	}
	if matrix == nil {
		return nil, nil
	}
	return matrix.TopNeighbors(userID, k), nil
}

// buildMatrix fetches the interaction universe and builds the affinity
// matrix. Returns a nil matrix when there are no users or no items.
func (e *Engine) buildMatrix(ctx context.Context) (*Matrix, []Item, error) {
	users, err := e.provider.GetUsers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get users: %w", err)
	}

	items, err := e.provider.GetItems(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get items: %w", err)
	}

	signals, err := e.provider.GetSignals(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get signals: %w", err)
	}

	itemIDs := make([]int, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}

	return BuildMatrix(users, itemIDs, signals), items, nil
}

// contentResults runs the semantic-retrieval path: embed the user's
// preference profile, embed every candidate book, and rank by cosine
// similarity. Books the user has already engaged with are excluded from
// the candidate set. Embedding failures propagate to the caller; a stale
// recommendation from cache is preferable to a silently degraded one.
func (e *Engine) contentResults(ctx context.Context, userID int, matrix *Matrix, items []Item, k int) ([]ContentResult, error) {
	if e.vectors == nil {
		return nil, nil
	}

	recent, err := e.provider.GetRecentItems(ctx, userID, profileRecentItems)
	if err != nil {
		return nil, fmt.Errorf("get recent items: %w", err)
	}

	query := BuildProfileQuery(recent)
	if query == "" {
		return nil, nil
	}

	queryVec, err := e.vectors.Vector(ctx, fmt.Sprintf("profile:%d", userID), query)
	if err != nil {
		return nil, fmt.Errorf("embed profile: %w", err)
	}

	engaged, _ := matrix.EngagedItems(userID)
	candidates := make([]CandidateVector, 0, len(items))
	for _, it := range items {
		if _, seen := engaged[it.ID]; seen {
			continue
		}
		vec, err := e.vectors.Vector(ctx, fmt.Sprintf("item:%d", it.ID), it.EmbeddingText())
		if err != nil {
			return nil, fmt.Errorf("embed item %d: %w", it.ID, err)
		}
		candidates = append(candidates, CandidateVector{ItemID: it.ID, Vector: vec})
	}

	return RankBySimilarity(queryVec, candidates, k), nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = "rec-" + uuid.NewString()[:8]
	}

	if req.K <= 0 {
		req.K = e.config.DefaultK
	}
	if req.K > e.config.MaxK {
		req.K = e.config.MaxK
	}

	if req.ContentWeight == 0 && req.CollaborativeWeight == 0 {
		req.ContentWeight = e.config.ContentWeight
		req.CollaborativeWeight = e.config.CollaborativeWeight
	}

	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Int("user_id", req.UserID).
		Int("k", req.K).
		Logger()
}

// tryGetCachedResponse attempts to retrieve a cached response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryGetCachedResponse(req Request, start time.Time, logger zerolog.Logger) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	resp := e.checkCache(e.cacheKey(req))
	if resp == nil {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = e.clock().Sub(start).Milliseconds()
	logger.Debug().Msg("cache hit")
	return resp
}

// cacheResponse stores the response in cache if enabled.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, resp *Response) {
	if e.config.Cache.Enabled {
		e.storeCache(e.cacheKey(req), resp)
	}
}

// cacheKey includes the blend weights because they change the ranking.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheKey(req Request) string {
	return fmt.Sprintf("rec:%d:%d:%.3f:%.3f", req.UserID, req.K, req.ContentWeight, req.CollaborativeWeight)
}

// checkCache returns a copy of the cached response for the key, or nil
// when absent or expired.
func (e *Engine) checkCache(key string) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok {
		return nil
	}
	if e.clock().After(entry.expiresAt) {
		return nil
	}
	return e.copyCachedResponse(entry.response)
}

// copyCachedResponse creates a copy so callers cannot mutate the cache.
func (e *Engine) copyCachedResponse(resp *Response) *Response {
	results := make([]Result, len(resp.Results))
	copy(results, resp.Results)

	return &Response{
		Results:  results,
		Metadata: resp.Metadata, // value type, safe to copy
	}
}

// storeCache stores a copy of the response, evicting expired entries at
// capacity. The copy keeps the cached entry isolated from later mutation
// of the response handed back to the caller.
func (e *Engine) storeCache(key string, resp *Response) {
	cached := e.copyCachedResponse(resp)

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}

	e.cache[key] = cacheEntry{
		response:  cached,
		expiresAt: e.clock().Add(e.config.Cache.TTL),
	}
}

// evictExpiredLocked removes expired cache entries.
// Must be called with cacheMu held.
func (e *Engine) evictExpiredLocked() {
	now := e.clock()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}

// ClearCache removes all cached responses. Call after retraining or a bulk
// catalog change so stale rankings do not outlive their inputs.
func (e *Engine) ClearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.cache = make(map[string]cacheEntry)
	e.logger.Debug().Msg("cache cleared")
}

// emptyResponse builds a valid zero-result response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) emptyResponse(req Request, start time.Time) *Response {
	return &Response{
		Results: []Result{},
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			LatencyMS: e.clock().Sub(start).Milliseconds(),
			Timestamp: e.clock(),
		},
	}
}

// Stats reports request and cache counters for monitoring.
func (e *Engine) Stats() (requests, cacheHits, cacheMisses int64) {
	return e.requestCount.Load(), e.cacheHits.Load(), e.cacheMisses.Load()
}
