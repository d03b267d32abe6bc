// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package feedback

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	impressionKeyPrefix = "impression:"
	userKeyPrefix       = "impression_user:"
	metricKeyPrefix     = "metric:"
)

// BadgerStore implements Store on BadgerDB for durable feedback history
// that survives restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an already-open BadgerDB handle. The caller owns
// the handle's lifecycle when sharing it; Close closes it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens a BadgerDB at dir and wraps it. Badger's own
// logger is disabled; callers log through the Tracker.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// PutImpression creates or overwrites an impression.
func (s *BadgerStore) PutImpression(imp Impression) error {
	data, err := json.Marshal(imp)
	if err != nil {
		return fmt.Errorf("marshal impression: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(impressionKeyPrefix + imp.ID)
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set impression: %w", err)
		}

		// User index for per-user summaries
		userKey := []byte(userKeyPrefix + strconv.Itoa(imp.UserID) + ":" + imp.ID)
		if err := txn.Set(userKey, []byte(imp.ID)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}

		return nil
	})
}

// GetImpression fetches an impression by id.
func (s *BadgerStore) GetImpression(id string) (Impression, error) {
	var imp Impression

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(impressionKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get impression: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &imp)
		})
	})
	if err != nil {
		return Impression{}, err
	}
	return imp, nil
}

// ImpressionsByUser returns a user's impressions, newest first.
func (s *BadgerStore) ImpressionsByUser(userID, limit int) ([]Impression, error) {
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix + strconv.Itoa(userID) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan user index: %w", err)
	}

	out := make([]Impression, 0, len(ids))
	for _, id := range ids {
		imp, err := s.GetImpression(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ShownAt.After(out[j].ShownAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetMetric fetches the bucket for (family, day).
func (s *BadgerStore) GetMetric(family, day string) (Metric, bool, error) {
	var m Metric
	found := true

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metricKeyPrefix + family + ":" + day))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("get metric: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		return Metric{}, false, err
	}
	return m, found, nil
}

// PutMetric creates or overwrites a metric bucket.
func (s *BadgerStore) PutMetric(m Metric) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metric: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metricKeyPrefix+m.Family+":"+m.Day), data)
	})
}

// MetricsSince returns buckets with Day >= fromDay, sorted by day then
// family.
func (s *BadgerStore) MetricsSince(family, fromDay string) ([]Metric, error) {
	var out []Metric

	prefix := []byte(metricKeyPrefix)
	if family != "" {
		prefix = []byte(metricKeyPrefix + family + ":")
	}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m Metric
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return err
			}
			if fromDay != "" && m.Day < fromDay {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan metrics: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Family < out[j].Family
	})
	return out, nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
