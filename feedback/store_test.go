// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package feedback

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_ImpressionsByUser(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		imp := Impression{
			ID:      string(rune('a' + i)),
			UserID:  7,
			Family:  "hybrid",
			ItemID:  10 + i,
			ShownAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.PutImpression(imp); err != nil {
			t.Fatalf("PutImpression() error = %v", err)
		}
	}

	got, err := store.ImpressionsByUser(7, 2)
	if err != nil {
		t.Fatalf("ImpressionsByUser() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ImpressionsByUser() returned %d, want 2", len(got))
	}
	if got[0].ItemID != 12 || got[1].ItemID != 11 {
		t.Errorf("order = [%d, %d], want newest first [12, 11]", got[0].ItemID, got[1].ItemID)
	}

	if _, err := store.GetImpression("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetImpression() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_OverwriteKeepsSingleIndexEntry(t *testing.T) {
	store := NewMemoryStore()

	imp := Impression{ID: "a", UserID: 7, Family: "hybrid", ItemID: 10}
	if err := store.PutImpression(imp); err != nil {
		t.Fatalf("PutImpression() error = %v", err)
	}
	imp.Resolved = true
	if err := store.PutImpression(imp); err != nil {
		t.Fatalf("PutImpression() error = %v", err)
	}

	got, err := store.ImpressionsByUser(7, 0)
	if err != nil {
		t.Fatalf("ImpressionsByUser() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ImpressionsByUser() returned %d, want 1 (overwrite must not duplicate)", len(got))
	}
	if !got[0].Resolved {
		t.Error("overwritten impression lost Resolved flag")
	}
}

func TestMemoryStore_MetricsSince(t *testing.T) {
	store := NewMemoryStore()

	seed := []Metric{
		{Family: "hybrid", Day: "2026-08-01", Shown: 1},
		{Family: "hybrid", Day: "2026-08-30", Shown: 2},
		{Family: "content", Day: "2026-08-30", Shown: 3},
	}
	for _, m := range seed {
		if err := store.PutMetric(m); err != nil {
			t.Fatalf("PutMetric() error = %v", err)
		}
	}

	got, err := store.MetricsSince("hybrid", "2026-08-15")
	if err != nil {
		t.Fatalf("MetricsSince() error = %v", err)
	}
	if len(got) != 1 || got[0].Day != "2026-08-30" {
		t.Errorf("MetricsSince() = %v, want single 2026-08-30 hybrid bucket", got)
	}

	all, err := store.MetricsSince("", "")
	if err != nil {
		t.Fatalf("MetricsSince() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("MetricsSince(all) returned %d, want 3", len(all))
	}
}
