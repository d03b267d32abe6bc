// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// profileRecentItems is how many recently-engaged books feed the
	// profile query.
	profileRecentItems = 5

	// profileSynopsisLimit truncates each synopsis to bound embedding cost.
	profileSynopsisLimit = 200

	// profileQueryBudget caps the number of joined query parts.
	profileQueryBudget = 500
)

// EmbeddingText returns the item's textual representation for embedding:
// title, synopsis, and tags concatenated. Any edit to these fields changes
// the text and therefore the embedding cache key.
func (it Item) EmbeddingText() string {
	parts := []string{it.Title}
	if it.Synopsis != "" {
		parts = append(parts, it.Synopsis)
	}
	if len(it.Tags) > 0 {
		parts = append(parts, strings.Join(it.Tags, " "))
	}
	return strings.Join(parts, " ")
}

// BuildProfileQuery constructs a query text describing the user's recent
// reading preferences: title, truncated synopsis, and genre of the most
// recent books (newest first, at most five), capped at an overall budget
// of joined parts to bound embedding cost. Returns "" when the user has no
// recent history.
func BuildProfileQuery(recent []Item) string {
	if len(recent) == 0 {
		return ""
	}
	if len(recent) > profileRecentItems {
		recent = recent[:profileRecentItems]
	}

	parts := make([]string, 0, len(recent)*3)
	for _, it := range recent {
		parts = append(parts, it.Title)
		if it.Synopsis != "" {
			parts = append(parts, truncateRunes(it.Synopsis, profileSynopsisLimit))
		}
		if it.Genre != "" {
			parts = append(parts, it.Genre)
		}
	}

	if len(parts) > profileQueryBudget {
		parts = parts[:profileQueryBudget]
	}
	return strings.Join(parts, " ")
}

// truncateRunes cuts s to at most limit characters without splitting a
// multi-byte sequence.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// CandidateVector pairs a candidate book with its content vector.
type CandidateVector struct {
	ItemID int
	Vector []float64
}

// RankBySimilarity scores every candidate vector against the query vector
// by cosine similarity, keeps only strictly positive similarities, and
// returns at most k results sorted descending. The relevance percentage is
// the similarity scaled to 100 and rounded to one decimal place.
func RankBySimilarity(query []float64, candidates []CandidateVector, k int) []ContentResult {
	if len(query) == 0 || k <= 0 {
		return nil
	}

	results := make([]ContentResult, 0, len(candidates))
	for _, c := range candidates {
		sim := CosineSimilarity(query, c.Vector)
		if sim <= 0 {
			continue
		}
		results = append(results, ContentResult{
			ItemID:       c.ItemID,
			Similarity:   sim,
			RelevancePct: roundTo(sim*100, 1),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
