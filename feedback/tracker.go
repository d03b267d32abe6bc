// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

// Package feedback implements the learning loop around served
// recommendations: impressions recorded at serve-time, outcomes attached
// at feedback-time, rolling per-family performance metrics, and advisory
// retrain/triage signals derived from them.
package feedback

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultRetrainThreshold is the resolved-feedback count per family
	// at which retraining is suggested.
	DefaultRetrainThreshold = 10

	// suggestionWindowDays is the metrics lookback for triage signals.
	suggestionWindowDays = 30

	// lowCTRThreshold flags families whose average daily CTR falls
	// below it.
	lowCTRThreshold = 10.0

	// lowRatingThreshold flags families whose average daily rating falls
	// below it, considering only days that carry a rating.
	lowRatingThreshold = 3.0
)

// Tracker records impressions and feedback and maintains per-(family, day)
// performance buckets. It is safe for concurrent use: a single mutex
// serializes the metric read-modify-write that bucket updates require.
type Tracker struct {
	store     Store
	logger    zerolog.Logger
	clock     func() time.Time
	threshold int

	mu sync.Mutex
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock injects a clock for deterministic testing.
func WithClock(clock func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithRetrainThreshold overrides the default retrain threshold.
func WithRetrainThreshold(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.threshold = n
		}
	}
}

// NewTracker creates a feedback tracker on the given store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(store Store, logger zerolog.Logger, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:     store,
		logger:    logger.With().Str("component", "feedback").Logger(),
		clock:     time.Now,
		threshold: DefaultRetrainThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordShown persists a shown impression and increments the Shown count
// of its (family, day) bucket, creating the bucket on first use. Returns
// the recommendation id used to attach feedback later.
func (t *Tracker) RecordShown(userID int, family string, itemID, position int, context map[string]string) (string, error) {
	now := t.clock()
	id := fmt.Sprintf("%d_%s_%d_%d_%s", userID, family, itemID, now.UnixNano(), uuid.NewString()[:8])

	imp := Impression{
		ID:       id,
		UserID:   userID,
		Family:   family,
		ItemID:   itemID,
		Position: position,
		Context:  context,
		ShownAt:  now,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.PutImpression(imp); err != nil {
		return "", fmt.Errorf("put impression: %w", err)
	}

	if err := t.bumpMetric(family, now, func(m *Metric) {
		m.Shown++
	}); err != nil {
		return "", err
	}

	ImpressionsTotal.WithLabelValues(family).Inc()
	t.logger.Debug().
		Str("recommendation_id", id).
		Int("user_id", userID).
		Str("family", family).
		Int("item_id", itemID).
		Msg("impression recorded")

	return id, nil
}

// RecordFeedback attaches an outcome to a previously shown impression and
// updates its (family, day) bucket. Resolution is idempotent for metrics:
// a repeat call overwrites the stored outcome but never produces a second
// metric increment. Returns ErrNotFound for an unknown id.
func (t *Tracker) RecordFeedback(id string, clicked bool, rating float64, kind string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	imp, err := t.store.GetImpression(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			UnknownResolutionsTotal.Inc()
			t.logger.Warn().Str("recommendation_id", id).Msg("feedback for unknown recommendation")
		}
		return err
	}

	firstResolution := !imp.Resolved

	imp.Resolved = true
	imp.Clicked = clicked
	imp.Rating = rating
	imp.Kind = kind
	if firstResolution {
		imp.ResolvedAt = t.clock()
	}

	if err := t.store.PutImpression(imp); err != nil {
		return fmt.Errorf("put impression: %w", err)
	}

	if !firstResolution {
		t.logger.Debug().
			Str("recommendation_id", id).
			Msg("repeat resolution, outcome overwritten without metric update")
		return nil
	}

	if err := t.bumpMetric(imp.Family, imp.ShownAt, func(m *Metric) {
		m.Resolved++
		if clicked {
			m.Clicked++
		}
		if rating > 0 {
			oldRated := m.Rated
			m.Rated++
			m.AvgRating = (m.AvgRating*float64(oldRated) + rating) / float64(m.Rated)
		}
	}); err != nil {
		return err
	}

	ResolutionsTotal.WithLabelValues(imp.Family).Inc()
	if clicked {
		ClicksTotal.WithLabelValues(imp.Family).Inc()
	}
	if rating > 0 {
		RatingsTotal.WithLabelValues(imp.Family).Inc()
	}

	t.logger.Debug().
		Str("recommendation_id", id).
		Bool("clicked", clicked).
		Float64("rating", rating).
		Str("kind", kind).
		Msg("feedback recorded")

	return nil
}

// bumpMetric applies a mutation to the (family, day) bucket under t.mu,
// creating the bucket on first use and recomputing CTR afterwards.
func (t *Tracker) bumpMetric(family string, at time.Time, mutate func(*Metric)) error {
	day := at.Format(DayFormat)

	m, ok, err := t.store.GetMetric(family, day)
	if err != nil {
		return fmt.Errorf("get metric: %w", err)
	}
	if !ok {
		m = Metric{Family: family, Day: day}
	}

	mutate(&m)

	if m.Shown > 0 {
		m.CTR = float64(m.Clicked) / float64(m.Shown) * 100
	} else {
		m.CTR = 0
	}
	m.UpdatedAt = t.clock()

	if err := t.store.PutMetric(m); err != nil {
		return fmt.Errorf("put metric: %w", err)
	}
	return nil
}

// ShouldRetrain reports whether the family has accumulated enough resolved
// feedback to justify retraining. Callers decide what retraining means.
func (t *Tracker) ShouldRetrain(family string) (bool, error) {
	metrics, err := t.store.MetricsSince(family, "")
	if err != nil {
		return false, err
	}

	resolved := 0
	for _, m := range metrics {
		resolved += m.Resolved
	}
	return resolved >= t.threshold, nil
}

// ImprovementSuggestions scans the last 30 days of metric buckets and
// flags families whose average daily CTR falls below 10% or whose average
// daily rating falls below 3.0. Each day weighs equally regardless of its
// volume; the rating mean considers only days that carry a rating.
// Advisory outputs, not imperative actions.
func (t *Tracker) ImprovementSuggestions() ([]Suggestion, error) {
	fromDay := t.clock().AddDate(0, 0, -suggestionWindowDays).Format(DayFormat)

	metrics, err := t.store.MetricsSince("", fromDay)
	if err != nil {
		return nil, err
	}

	type dayMeans struct {
		ctrSum     float64
		ctrDays    int
		ratingSum  float64
		ratingDays int
	}
	byFamily := make(map[string]*dayMeans)
	for _, m := range metrics {
		dm := byFamily[m.Family]
		if dm == nil {
			dm = &dayMeans{}
			byFamily[m.Family] = dm
		}
		if m.Shown > 0 {
			dm.ctrSum += m.CTR
			dm.ctrDays++
		}
		if m.Rated > 0 {
			dm.ratingSum += m.AvgRating
			dm.ratingDays++
		}
	}

	families := make([]string, 0, len(byFamily))
	for family := range byFamily {
		families = append(families, family)
	}
	sort.Strings(families)

	var suggestions []Suggestion
	for _, family := range families {
		dm := byFamily[family]
		if dm.ctrDays > 0 {
			if ctr := dm.ctrSum / float64(dm.ctrDays); ctr < lowCTRThreshold {
				suggestions = append(suggestions, Suggestion{
					Family:    family,
					Kind:      SuggestionLowCTR,
					Value:     ctr,
					Threshold: lowCTRThreshold,
				})
			}
		}
		if dm.ratingDays > 0 {
			if rating := dm.ratingSum / float64(dm.ratingDays); rating < lowRatingThreshold {
				suggestions = append(suggestions, Suggestion{
					Family:    family,
					Kind:      SuggestionLowRating,
					Value:     rating,
					Threshold: lowRatingThreshold,
				})
			}
		}
	}
	return suggestions, nil
}

// Performance aggregates a family's metric buckets over the last given
// number of days (0 means all history). Family "" aggregates all families.
func (t *Tracker) Performance(family string, days int) (Performance, error) {
	fromDay := ""
	if days > 0 {
		fromDay = t.clock().AddDate(0, 0, -days).Format(DayFormat)
	}

	metrics, err := t.store.MetricsSince(family, fromDay)
	if err != nil {
		return Performance{}, err
	}

	p := aggregateMetrics(metrics)
	p.Family = family
	return p, nil
}

// UserSummary summarizes a user's impressions and outcomes.
func (t *Tracker) UserSummary(userID int) (UserSummary, error) {
	imps, err := t.store.ImpressionsByUser(userID, 0)
	if err != nil {
		return UserSummary{}, err
	}

	s := UserSummary{
		UserID:   userID,
		ByFamily: make(map[string]int),
	}

	ratingSum := 0.0
	for _, imp := range imps {
		s.Shown++
		s.ByFamily[imp.Family]++
		if !imp.Resolved {
			continue
		}
		s.Resolved++
		if imp.Clicked {
			s.Clicked++
		}
		if imp.Rating > 0 {
			s.Rated++
			ratingSum += imp.Rating
		}
	}
	if s.Rated > 0 {
		s.AvgRating = ratingSum / float64(s.Rated)
	}
	return s, nil
}

// AnalyzePatterns aggregates all metric history per family, sorted by
// CTR descending, for comparative analysis of which family performs best.
func (t *Tracker) AnalyzePatterns() ([]Performance, error) {
	metrics, err := t.store.MetricsSince("", "")
	if err != nil {
		return nil, err
	}

	perf := aggregateByFamily(metrics)

	out := make([]Performance, 0, len(perf))
	for family, p := range perf {
		p.Family = family
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CTR != out[j].CTR {
			return out[i].CTR > out[j].CTR
		}
		return out[i].Family < out[j].Family
	})
	return out, nil
}

// aggregateByFamily groups buckets by family and aggregates each group.
func aggregateByFamily(metrics []Metric) map[string]Performance {
	groups := make(map[string][]Metric)
	for _, m := range metrics {
		groups[m.Family] = append(groups[m.Family], m)
	}

	out := make(map[string]Performance, len(groups))
	for family, group := range groups {
		out[family] = aggregateMetrics(group)
	}
	return out
}

// aggregateMetrics sums bucket counts and derives aggregate CTR and
// rated-count-weighted average rating.
func aggregateMetrics(metrics []Metric) Performance {
	p := Performance{Days: len(metrics)}

	ratingWeighted := 0.0
	for _, m := range metrics {
		p.Shown += m.Shown
		p.Clicked += m.Clicked
		p.Rated += m.Rated
		p.Resolved += m.Resolved
		ratingWeighted += m.AvgRating * float64(m.Rated)
	}

	if p.Shown > 0 {
		p.CTR = float64(p.Clicked) / float64(p.Shown) * 100
	}
	if p.Rated > 0 {
		p.AvgRating = ratingWeighted / float64(p.Rated)
	}
	return p
}
