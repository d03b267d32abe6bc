// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImpressionsTotal counts shown recommendations by family.
	ImpressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgenie_feedback_impressions_total",
			Help: "Total number of recommendation impressions recorded",
		},
		[]string{"family"},
	)

	// ResolutionsTotal counts first-time feedback resolutions by family.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgenie_feedback_resolutions_total",
			Help: "Total number of impressions resolved with feedback",
		},
		[]string{"family"},
	)

	// ClicksTotal counts resolved impressions that carried a click.
	ClicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgenie_feedback_clicks_total",
			Help: "Total number of clicked recommendations",
		},
		[]string{"family"},
	)

	// RatingsTotal counts resolved impressions that carried a rating.
	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookgenie_feedback_ratings_total",
			Help: "Total number of rated recommendations",
		},
		[]string{"family"},
	)

	// UnknownResolutionsTotal counts feedback against unknown ids,
	// for alerting on client/serving drift.
	UnknownResolutionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookgenie_feedback_unknown_resolutions_total",
			Help: "Total number of feedback events referencing an unknown recommendation id",
		},
	)
)
