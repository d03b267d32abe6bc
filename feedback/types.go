// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package feedback

import "time"

// DayFormat is the day-granularity key format for metric buckets.
const DayFormat = "2006-01-02"

// Impression is one shown recommendation and its eventual outcome.
// Lifecycle: created at serve-time, resolved at most once at feedback-time,
// retained indefinitely for analytics.
type Impression struct {
	// ID uniquely identifies this shown item within its request.
	ID string `json:"id"`

	// UserID is the user the recommendation was shown to.
	UserID int `json:"user_id"`

	// Family is the producing recommendation family:
	// "collaborative", "content", "hybrid", or "popularity".
	Family string `json:"family"`

	// ItemID is the recommended book.
	ItemID int `json:"item_id"`

	// Position is the zero-based rank the item was shown at.
	Position int `json:"position"`

	// Context carries optional serve-time key/value context.
	Context map[string]string `json:"context,omitempty"`

	// ShownAt is when the impression was recorded.
	ShownAt time.Time `json:"shown_at"`

	// Resolved marks whether feedback has been attached.
	Resolved bool `json:"resolved"`

	// Clicked, Rating, and Kind are the outcome fields, unset until
	// resolution. Rating is on the 1-5 scale; 0 means not rated.
	Clicked bool    `json:"clicked"`
	Rating  float64 `json:"rating,omitempty"`
	Kind    string  `json:"kind,omitempty"`

	// ResolvedAt is when feedback was first attached; zero until then.
	ResolvedAt time.Time `json:"resolved_at"`
}

// Metric is the rolling performance bucket for one (family, day) pair.
// Created lazily on the first impression of that family and day; counts
// only ever increase.
type Metric struct {
	// Family is the recommendation family.
	Family string `json:"family"`

	// Day is the bucket day in DayFormat.
	Day string `json:"day"`

	// Shown is the number of impressions recorded.
	Shown int `json:"shown"`

	// Clicked is the number of resolved impressions with a click.
	Clicked int `json:"clicked"`

	// Rated is the number of resolved impressions carrying a rating.
	Rated int `json:"rated"`

	// Resolved is the number of impressions resolved at least once.
	Resolved int `json:"resolved"`

	// AvgRating is the running mean of attached ratings; 0 until the
	// first rating arrives.
	AvgRating float64 `json:"avg_rating"`

	// CTR is clicked/shown as a percentage; 0 when nothing was shown.
	CTR float64 `json:"ctr"`

	// UpdatedAt is when the bucket was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Suggestion kinds emitted by ImprovementSuggestions.
const (
	SuggestionLowCTR    = "low_ctr"
	SuggestionLowRating = "low_rating"
)

// Suggestion is an advisory triage signal for one recommendation family.
type Suggestion struct {
	// Family is the flagged recommendation family.
	Family string `json:"family"`

	// Kind is SuggestionLowCTR or SuggestionLowRating.
	Kind string `json:"kind"`

	// Value is the observed metric that tripped the threshold.
	Value float64 `json:"value"`

	// Threshold is the boundary the value fell below.
	Threshold float64 `json:"threshold"`
}

// Performance is an aggregate over a family's metric buckets in a window.
type Performance struct {
	// Family is the recommendation family; "" means all families.
	Family string `json:"family"`

	// Days is the number of metric buckets aggregated.
	Days int `json:"days"`

	// Shown, Clicked, Rated, and Resolved are summed counts.
	Shown    int `json:"shown"`
	Clicked  int `json:"clicked"`
	Rated    int `json:"rated"`
	Resolved int `json:"resolved"`

	// CTR is aggregate clicked/shown as a percentage.
	CTR float64 `json:"ctr"`

	// AvgRating is the rated-count-weighted mean rating across buckets
	// that carry one; 0 when no bucket does.
	AvgRating float64 `json:"avg_rating"`
}

// UserSummary is a per-user view of impressions and outcomes.
type UserSummary struct {
	// UserID is the summarized user.
	UserID int `json:"user_id"`

	// Shown, Resolved, Clicked, and Rated are impression counts.
	Shown    int `json:"shown"`
	Resolved int `json:"resolved"`
	Clicked  int `json:"clicked"`
	Rated    int `json:"rated"`

	// AvgRating is the mean of the user's attached ratings.
	AvgRating float64 `json:"avg_rating"`

	// ByFamily counts impressions per recommendation family.
	ByFamily map[string]int `json:"by_family"`
}
