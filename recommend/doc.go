// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

// Package recommend implements a hybrid recommendation engine for a digital
// library catalog.
//
// # Architecture
//
// The engine combines two signal families into one ranked list:
//
//   - Collaborative Filtering: user-user cosine similarity over an affinity
//     matrix built from reading engagement, explicit ratings, and typed
//     interactions, with a popularity fallback for cold-start users
//   - Content-Based Retrieval: semantic similarity between an embedded
//     user preference profile and embedded book metadata
//
// Component results are blended with normalized weights; each returned
// result carries its component scores and provenance flags.
//
// # Design Principles
//
//   - Deterministic: the same interaction universe produces identical
//     rankings (stable sorts, fixed tie-breaking by user and catalog order)
//   - Stateless: the affinity matrix is rebuilt from source feeds on
//     demand, never incrementally maintained
//   - Auditable: every request is logged with structured fields and a
//     request ID
//   - Decoupled: all data access goes through the DataProvider interface,
//     embedding through the embedding package
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	engine, err := recommend.NewEngine(cfg, provider, vectors, logger)
//	if err != nil {
//		return err
//	}
//	resp, err := engine.Recommend(ctx, recommend.Request{UserID: 42, K: 10})
package recommend
