// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package feedback

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a recommendation id has no stored
// impression. Resolving feedback against it is a no-op failure signal,
// not a crash.
var ErrNotFound = errors.New("impression not found")

// Store persists impressions and metric buckets. Implementations must be
// safe for concurrent use; the Tracker provides the read-modify-write
// serialization metric updates require.
type Store interface {
	// PutImpression creates or overwrites an impression.
	PutImpression(imp Impression) error

	// GetImpression fetches an impression by id, ErrNotFound if absent.
	GetImpression(id string) (Impression, error)

	// ImpressionsByUser returns a user's impressions, newest first,
	// at most limit entries (limit <= 0 means all).
	ImpressionsByUser(userID, limit int) ([]Impression, error)

	// GetMetric fetches the bucket for (family, day); ok is false when
	// the bucket does not exist yet.
	GetMetric(family, day string) (m Metric, ok bool, err error)

	// PutMetric creates or overwrites a metric bucket.
	PutMetric(m Metric) error

	// MetricsSince returns buckets with Day >= fromDay for the family,
	// or for all families when family is "". fromDay "" means all days.
	MetricsSince(family, fromDay string) ([]Metric, error)

	// Close releases underlying resources.
	Close() error
}

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	impressions map[string]Impression
	byUser      map[int][]string
	metrics     map[string]Metric
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		impressions: make(map[string]Impression),
		byUser:      make(map[int][]string),
		metrics:     make(map[string]Metric),
	}
}

// PutImpression creates or overwrites an impression.
func (s *MemoryStore) PutImpression(imp Impression) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.impressions[imp.ID]; !exists {
		s.byUser[imp.UserID] = append(s.byUser[imp.UserID], imp.ID)
	}
	s.impressions[imp.ID] = imp
	return nil
}

// GetImpression fetches an impression by id.
func (s *MemoryStore) GetImpression(id string) (Impression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	imp, ok := s.impressions[id]
	if !ok {
		return Impression{}, ErrNotFound
	}
	return imp, nil
}

// ImpressionsByUser returns a user's impressions, newest first.
func (s *MemoryStore) ImpressionsByUser(userID, limit int) ([]Impression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	out := make([]Impression, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.impressions[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ShownAt.After(out[j].ShownAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func metricKey(family, day string) string {
	return family + "|" + day
}

// GetMetric fetches the bucket for (family, day).
func (s *MemoryStore) GetMetric(family, day string) (Metric, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.metrics[metricKey(family, day)]
	return m, ok, nil
}

// PutMetric creates or overwrites a metric bucket.
func (s *MemoryStore) PutMetric(m Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics[metricKey(m.Family, m.Day)] = m
	return nil
}

// MetricsSince returns buckets with Day >= fromDay, sorted by day then
// family for stable output.
func (s *MemoryStore) MetricsSince(family, fromDay string) ([]Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Metric, 0, len(s.metrics))
	for _, m := range s.metrics {
		if family != "" && m.Family != family {
			continue
		}
		if fromDay != "" && m.Day < fromDay {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Family < out[j].Family
	})
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
