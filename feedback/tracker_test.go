// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package feedback

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const epsilon = 1e-9

func newTestTracker(t *testing.T, opts ...TrackerOption) (*Tracker, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewTracker(store, zerolog.Nop(), opts...), store
}

func fixedClock(at time.Time) TrackerOption {
	return WithClock(func() time.Time { return at })
}

func TestTracker_RecordShown(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, store := newTestTracker(t, fixedClock(now))

	id, err := tracker.RecordShown(1, "hybrid", 10, 0, map[string]string{"page": "home"})
	if err != nil {
		t.Fatalf("RecordShown() error = %v", err)
	}
	if !strings.HasPrefix(id, "1_hybrid_10_") {
		t.Errorf("id = %q, want 1_hybrid_10_ prefix", id)
	}

	imp, err := store.GetImpression(id)
	if err != nil {
		t.Fatalf("GetImpression() error = %v", err)
	}
	if imp.Resolved {
		t.Error("new impression must not be resolved")
	}
	if imp.Context["page"] != "home" {
		t.Errorf("Context = %v, want page=home", imp.Context)
	}

	m, ok, err := store.GetMetric("hybrid", "2026-08-30")
	if err != nil || !ok {
		t.Fatalf("GetMetric() = %v, %v, want bucket created lazily", ok, err)
	}
	if m.Shown != 1 || m.Clicked != 0 || m.Rated != 0 {
		t.Errorf("metric = %+v, want shown=1 only", m)
	}
}

func TestTracker_RecordFeedback_UnknownID(t *testing.T) {
	tracker, _ := newTestTracker(t)

	err := tracker.RecordFeedback("missing", true, 0, "click")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordFeedback() error = %v, want ErrNotFound", err)
	}
}

func TestTracker_CTRRecomputation(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, store := newTestTracker(t, fixedClock(now))

	// 10 shown, 3 clicked => CTR 30.0
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		id, err := tracker.RecordShown(1, "collaborative", 10+i, i, nil)
		if err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}
		ids = append(ids, id)
	}
	for i := 0; i < 3; i++ {
		if err := tracker.RecordFeedback(ids[i], true, 0, "click"); err != nil {
			t.Fatalf("RecordFeedback() error = %v", err)
		}
	}

	m, _, err := store.GetMetric("collaborative", "2026-08-30")
	if err != nil {
		t.Fatalf("GetMetric() error = %v", err)
	}
	if m.Shown != 10 || m.Clicked != 3 {
		t.Fatalf("metric = %+v, want shown=10 clicked=3", m)
	}
	if m.CTR != 30.0 {
		t.Errorf("CTR = %f, want 30.0", m.CTR)
	}
}

func TestTracker_RunningAverageRating(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, store := newTestTracker(t, fixedClock(now))

	rate := func(rating float64) {
		t.Helper()
		id, err := tracker.RecordShown(1, "content", 10, 0, nil)
		if err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}
		if err := tracker.RecordFeedback(id, false, rating, "rating"); err != nil {
			t.Fatalf("RecordFeedback() error = %v", err)
		}
	}

	// Two ratings of 4.0 establish old_avg=4.0 over old_rated=2, then a
	// rating of 2 gives (4.0*2+2)/3.
	rate(4)
	rate(4)
	rate(2)

	m, _, err := store.GetMetric("content", "2026-08-30")
	if err != nil {
		t.Fatalf("GetMetric() error = %v", err)
	}
	if m.Rated != 3 {
		t.Fatalf("Rated = %d, want 3", m.Rated)
	}
	want := (4.0*2 + 2) / 3
	if math.Abs(m.AvgRating-want) > epsilon {
		t.Errorf("AvgRating = %f, want %f", m.AvgRating, want)
	}
}

func TestTracker_IdempotentResolution(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, store := newTestTracker(t, fixedClock(now))

	id, err := tracker.RecordShown(1, "hybrid", 10, 0, nil)
	if err != nil {
		t.Fatalf("RecordShown() error = %v", err)
	}

	if err := tracker.RecordFeedback(id, true, 5, "click"); err != nil {
		t.Fatalf("first RecordFeedback() error = %v", err)
	}
	if err := tracker.RecordFeedback(id, true, 1, "click"); err != nil {
		t.Fatalf("repeat RecordFeedback() error = %v", err)
	}

	m, _, err := store.GetMetric("hybrid", "2026-08-30")
	if err != nil {
		t.Fatalf("GetMetric() error = %v", err)
	}
	if m.Clicked != 1 || m.Rated != 1 || m.Resolved != 1 {
		t.Errorf("metric = %+v, want single increments despite repeat resolution", m)
	}
	if m.AvgRating != 5 {
		t.Errorf("AvgRating = %f, want 5 (first resolution only)", m.AvgRating)
	}

	// The stored outcome is overwritten by the repeat.
	imp, err := store.GetImpression(id)
	if err != nil {
		t.Fatalf("GetImpression() error = %v", err)
	}
	if imp.Rating != 1 {
		t.Errorf("impression Rating = %f, want 1 (overwritten)", imp.Rating)
	}
}

func TestTracker_ShouldRetrain(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, _ := newTestTracker(t, fixedClock(now), WithRetrainThreshold(3))

	for i := 0; i < 3; i++ {
		id, err := tracker.RecordShown(1, "hybrid", 10+i, i, nil)
		if err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}

		retrain, err := tracker.ShouldRetrain("hybrid")
		if err != nil {
			t.Fatalf("ShouldRetrain() error = %v", err)
		}
		if retrain {
			t.Fatalf("ShouldRetrain() = true at %d resolutions, want false", i)
		}

		if err := tracker.RecordFeedback(id, true, 0, "click"); err != nil {
			t.Fatalf("RecordFeedback() error = %v", err)
		}
	}

	retrain, err := tracker.ShouldRetrain("hybrid")
	if err != nil {
		t.Fatalf("ShouldRetrain() error = %v", err)
	}
	if !retrain {
		t.Error("ShouldRetrain() = false at threshold, want true")
	}

	// Other families are unaffected.
	retrain, err = tracker.ShouldRetrain("content")
	if err != nil {
		t.Fatalf("ShouldRetrain() error = %v", err)
	}
	if retrain {
		t.Error("ShouldRetrain(other family) = true, want false")
	}
}

func TestTracker_ImprovementSuggestions(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, _ := newTestTracker(t, fixedClock(now))

	// "stale" family: 10 shown, 0 clicked, poor ratings.
	for i := 0; i < 10; i++ {
		id, err := tracker.RecordShown(1, "stale", 10+i, i, nil)
		if err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}
		if i < 2 {
			if err := tracker.RecordFeedback(id, false, 2, "rating"); err != nil {
				t.Fatalf("RecordFeedback() error = %v", err)
			}
		}
	}

	// "healthy" family: 10 shown, 5 clicked, good ratings.
	for i := 0; i < 10; i++ {
		id, err := tracker.RecordShown(1, "healthy", 10+i, i, nil)
		if err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}
		if i < 5 {
			if err := tracker.RecordFeedback(id, true, 5, "click"); err != nil {
				t.Fatalf("RecordFeedback() error = %v", err)
			}
		}
	}

	suggestions, err := tracker.ImprovementSuggestions()
	if err != nil {
		t.Fatalf("ImprovementSuggestions() error = %v", err)
	}

	kinds := make(map[string][]string)
	for _, s := range suggestions {
		kinds[s.Family] = append(kinds[s.Family], s.Kind)
	}

	if len(kinds["healthy"]) != 0 {
		t.Errorf("healthy family flagged: %v", kinds["healthy"])
	}
	if len(kinds["stale"]) != 2 {
		t.Fatalf("stale family suggestions = %v, want low_ctr and low_rating", kinds["stale"])
	}

	for _, s := range suggestions {
		if s.Family != "stale" {
			continue
		}
		switch s.Kind {
		case SuggestionLowCTR:
			if s.Value != 0 || s.Threshold != 10.0 {
				t.Errorf("low_ctr suggestion = %+v, want value 0, threshold 10", s)
			}
		case SuggestionLowRating:
			if s.Value != 2.0 || s.Threshold != 3.0 {
				t.Errorf("low_rating suggestion = %+v, want value 2, threshold 3", s)
			}
		default:
			t.Errorf("unexpected suggestion kind %q", s.Kind)
		}
	}
}

func TestTracker_ImprovementSuggestions_AveragesDailyValues(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := now.AddDate(0, 0, -1)
	tracker, _ := newTestTracker(t, WithClock(func() time.Time { return clock }))

	serve := func(family string, shown, clicked int, rating float64) {
		t.Helper()
		for i := 0; i < shown; i++ {
			id, err := tracker.RecordShown(1, family, 100+i, i, nil)
			if err != nil {
				t.Fatalf("RecordShown() error = %v", err)
			}
			if i < clicked {
				if err := tracker.RecordFeedback(id, true, rating, "click"); err != nil {
					t.Fatalf("RecordFeedback() error = %v", err)
				}
			}
		}
	}

	// Yesterday: tiny volume, strong outcomes.
	// hybrid CTR 100, content one rating of 5.0.
	serve("hybrid", 1, 1, 0)
	serve("content", 1, 1, 5)

	// Today: large volume, weak outcomes. hybrid 4/99 clicked gives a
	// daily CTR near 4; content three ratings of 2.0.
	clock = now
	serve("hybrid", 99, 4, 0)
	serve("content", 3, 3, 2)

	// Pooled over the window hybrid CTR is 5/100 = 5% and content's
	// rated-weighted rating is 2.75, both under threshold. Each day
	// weighs equally instead: hybrid (100 + 4.04)/2 = 52 and content
	// (5 + 2)/2 = 3.5, so neither family is flagged.
	suggestions, err := tracker.ImprovementSuggestions()
	if err != nil {
		t.Fatalf("ImprovementSuggestions() error = %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("suggestions = %+v, want none (daily averages above thresholds)", suggestions)
	}

	// A family weak on every day is still flagged, with the day-mean as
	// the reported value: 5% and 8% average to 6.5.
	clock = now.AddDate(0, 0, -1)
	serve("weak", 20, 1, 0)
	clock = now
	serve("weak", 25, 2, 0)

	suggestions, err = tracker.ImprovementSuggestions()
	if err != nil {
		t.Fatalf("ImprovementSuggestions() error = %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("suggestions = %+v, want one low_ctr for weak", suggestions)
	}
	s := suggestions[0]
	if s.Family != "weak" || s.Kind != SuggestionLowCTR {
		t.Fatalf("suggestion = %+v, want weak/low_ctr", s)
	}
	if math.Abs(s.Value-6.5) > epsilon {
		t.Errorf("Value = %f, want 6.5 (mean of daily CTRs)", s.Value)
	}
}

func TestTracker_ImprovementSuggestions_IgnoresOldMetrics(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -40)

	clock := old
	tracker, _ := newTestTracker(t, WithClock(func() time.Time { return clock }))

	// Poor performance 40 days ago.
	for i := 0; i < 10; i++ {
		if _, err := tracker.RecordShown(1, "hybrid", 10+i, i, nil); err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}
	}

	clock = now
	suggestions, err := tracker.ImprovementSuggestions()
	if err != nil {
		t.Fatalf("ImprovementSuggestions() error = %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("suggestions = %v, want none (metrics outside 30-day window)", suggestions)
	}
}

func TestTracker_Performance(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := now.AddDate(0, 0, -1)
	tracker, _ := newTestTracker(t, WithClock(func() time.Time { return clock }))

	// Yesterday: 4 shown, 1 clicked.
	var id string
	var err error
	for i := 0; i < 4; i++ {
		id, err = tracker.RecordShown(1, "hybrid", 10+i, i, nil)
		if err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}
	}
	if err := tracker.RecordFeedback(id, true, 4, "click"); err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}

	// Today: 6 shown, 2 clicked.
	clock = now
	for i := 0; i < 6; i++ {
		id, err = tracker.RecordShown(1, "hybrid", 20+i, i, nil)
		if err != nil {
			t.Fatalf("RecordShown() error = %v", err)
		}
		if i < 2 {
			if err := tracker.RecordFeedback(id, true, 0, "click"); err != nil {
				t.Fatalf("RecordFeedback() error = %v", err)
			}
		}
	}

	p, err := tracker.Performance("hybrid", 7)
	if err != nil {
		t.Fatalf("Performance() error = %v", err)
	}
	if p.Days != 2 {
		t.Errorf("Days = %d, want 2", p.Days)
	}
	if p.Shown != 10 || p.Clicked != 3 {
		t.Errorf("aggregate = %+v, want shown=10 clicked=3", p)
	}
	if p.CTR != 30.0 {
		t.Errorf("CTR = %f, want 30.0", p.CTR)
	}
	if p.AvgRating != 4.0 {
		t.Errorf("AvgRating = %f, want 4.0", p.AvgRating)
	}
}

func TestTracker_UserSummary(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, _ := newTestTracker(t, fixedClock(now))

	id1, err := tracker.RecordShown(7, "hybrid", 10, 0, nil)
	if err != nil {
		t.Fatalf("RecordShown() error = %v", err)
	}
	if _, err := tracker.RecordShown(7, "content", 11, 1, nil); err != nil {
		t.Fatalf("RecordShown() error = %v", err)
	}
	if _, err := tracker.RecordShown(8, "hybrid", 10, 0, nil); err != nil {
		t.Fatalf("RecordShown() error = %v", err)
	}

	if err := tracker.RecordFeedback(id1, true, 4, "click"); err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}

	s, err := tracker.UserSummary(7)
	if err != nil {
		t.Fatalf("UserSummary() error = %v", err)
	}
	if s.Shown != 2 || s.Resolved != 1 || s.Clicked != 1 || s.Rated != 1 {
		t.Errorf("summary = %+v, want shown=2 resolved=1 clicked=1 rated=1", s)
	}
	if s.AvgRating != 4.0 {
		t.Errorf("AvgRating = %f, want 4.0", s.AvgRating)
	}
	if s.ByFamily["hybrid"] != 1 || s.ByFamily["content"] != 1 {
		t.Errorf("ByFamily = %v, want hybrid=1 content=1", s.ByFamily)
	}
}

func TestTracker_AnalyzePatterns(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker, _ := newTestTracker(t, fixedClock(now))

	show := func(family string, shown, clicked int) {
		t.Helper()
		for i := 0; i < shown; i++ {
			id, err := tracker.RecordShown(1, family, 10+i, i, nil)
			if err != nil {
				t.Fatalf("RecordShown() error = %v", err)
			}
			if i < clicked {
				if err := tracker.RecordFeedback(id, true, 0, "click"); err != nil {
					t.Fatalf("RecordFeedback() error = %v", err)
				}
			}
		}
	}

	show("collaborative", 10, 2)
	show("content", 10, 8)

	patterns, err := tracker.AnalyzePatterns()
	if err != nil {
		t.Fatalf("AnalyzePatterns() error = %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("patterns = %d families, want 2", len(patterns))
	}
	if patterns[0].Family != "content" {
		t.Errorf("best family = %q, want content", patterns[0].Family)
	}
	if patterns[0].CTR <= patterns[1].CTR {
		t.Errorf("patterns not sorted by CTR: %f <= %f", patterns[0].CTR, patterns[1].CTR)
	}
}
