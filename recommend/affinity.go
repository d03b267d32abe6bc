// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

// Per-signal contribution caps. Each cap is enforced independently before
// summation so no single signal can dominate a cell unboundedly; the
// theoretical cell maximum is ~2.3 (1.0 engagement + 0.8 rating + 0.5
// views, or 0.6 download in place of views).
const (
	// countWeightPerRead is the engagement weight per reading session.
	countWeightPerRead = 0.3

	// minutesPerFullDuration is the reading duration that saturates the
	// duration weight (one hour).
	minutesPerFullDuration = 60.0

	// ratingScale is the maximum explicit rating value.
	ratingScale = 5.0

	// ratingCap scales the normalized rating so explicit feedback
	// contributes at most 0.8.
	ratingCap = 0.8
)

// Matrix is a dense user x item affinity matrix. Cells hold non-negative
// scores; every (user, item) pair of the construction-time universe is
// present, defaulting to 0. A Matrix is a plain value owned by the caller
// for the duration of one recommendation request or a short-lived cache
// window; it is never mutated after construction.
type Matrix struct {
	// Users is the user universe in construction order.
	Users []int

	// Items is the item universe in construction order. Row vectors are
	// laid out in this order.
	Items []int

	// Scores maps user -> item -> affinity.
	Scores map[int]map[int]float64
}

// BuildMatrix builds the affinity matrix from the three interaction source
// feeds. It is a pure function of its inputs: no hidden state, a fresh
// matrix on every call. Returns nil when there are no known users or no
// known items. Signal rows referencing a user or item absent from the
// provided universe are silently ignored.
func BuildMatrix(users []int, items []int, signals Signals) *Matrix {
	if len(users) == 0 || len(items) == 0 {
		return nil
	}

	m := &Matrix{
		Users:  users,
		Items:  items,
		Scores: make(map[int]map[int]float64, len(users)),
	}

	for _, userID := range users {
		row := make(map[int]float64, len(items))
		for _, itemID := range items {
			row[itemID] = 0
		}
		m.Scores[userID] = row
	}

	// Signal 1: implicit engagement (reading count + duration).
	for _, r := range signals.Engagement {
		row, ok := m.Scores[r.UserID]
		if !ok {
			continue
		}
		if _, ok := row[r.ItemID]; !ok {
			continue
		}

		countWeight := float64(r.Count) * countWeightPerRead
		if countWeight > 1.0 {
			countWeight = 1.0
		}
		durationWeight := r.TotalMinutes / minutesPerFullDuration
		if durationWeight > 1.0 {
			durationWeight = 1.0
		}

		row[r.ItemID] += (countWeight + durationWeight) / 2
	}

	// Signal 2: explicit positive feedback. Only rows flagged helpful with
	// a positive rating contribute.
	for _, r := range signals.Ratings {
		if !r.Helpful || r.AvgRating <= 0 {
			continue
		}
		row, ok := m.Scores[r.UserID]
		if !ok {
			continue
		}
		if _, ok := row[r.ItemID]; !ok {
			continue
		}

		row[r.ItemID] += (r.AvgRating / ratingScale) * ratingCap
	}

	// Signal 3: typed interactions with fixed per-kind weights.
	for _, r := range signals.Interactions {
		row, ok := m.Scores[r.UserID]
		if !ok {
			continue
		}
		if _, ok := row[r.ItemID]; !ok {
			continue
		}

		row[r.ItemID] += r.Kind.Weight(r.Count, r.AvgValue)
	}

	return m
}

// Row returns the user's affinity vector laid out in Items order.
// Returns nil for a user unknown to the matrix.
func (m *Matrix) Row(userID int) []float64 {
	row, ok := m.Scores[userID]
	if !ok {
		return nil
	}

	vec := make([]float64, len(m.Items))
	for i, itemID := range m.Items {
		vec[i] = row[itemID]
	}
	return vec
}

// EngagedItems returns the set of items the user has a positive affinity
// for, along with the summed affinity. Returns an empty set for a user
// unknown to the matrix.
func (m *Matrix) EngagedItems(userID int) (map[int]struct{}, float64) {
	engaged := make(map[int]struct{})
	var total float64

	row, ok := m.Scores[userID]
	if !ok {
		return engaged, 0
	}

	for itemID, score := range row {
		if score > 0 {
			engaged[itemID] = struct{}{}
			total += score
		}
	}
	return engaged, total
}
