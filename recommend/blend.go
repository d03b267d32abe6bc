// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

import "sort"

// Blend combines content and collaborative results into one ranking.
//
// Weights are normalized to sum to 1 before use; when both are zero every
// blended score collapses to 0, which is defined behavior rather than an
// error. For the union of items appearing in either result set, each item
// carries independently clamped-to-[0,1] component scores (0 when absent
// from that result set); the blended score is the weighted sum. Output is
// sorted by blended score descending, at most k entries, each carrying
// component percentages and provenance flags.
func Blend(content []ContentResult, collaborative []ItemScore, contentWeight, collaborativeWeight float64, k int) []Result {
	if k <= 0 {
		return nil
	}

	if total := contentWeight + collaborativeWeight; total > 0 {
		contentWeight /= total
		collaborativeWeight /= total
	}

	merged := make(map[int]*Result)
	order := make([]int, 0, len(content)+len(collaborative))

	entry := func(itemID int) *Result {
		r, ok := merged[itemID]
		if !ok {
			r = &Result{ItemID: itemID}
			merged[itemID] = r
			order = append(order, itemID)
		}
		return r
	}

	for _, c := range content {
		r := entry(c.ItemID)
		r.ContentScore = clamp01(c.Similarity)
		r.ContentPct = roundTo(r.ContentScore*100, 1)
		r.HasContent = r.ContentScore > 0
	}

	for _, c := range collaborative {
		r := entry(c.ItemID)
		r.CollaborativeScore = clamp01(c.Score)
		r.CollaborativePct = roundTo(r.CollaborativeScore*100, 1)
		r.HasCollaborative = r.CollaborativeScore > 0
	}

	results := make([]Result, 0, len(order))
	for _, itemID := range order {
		r := merged[itemID]
		r.BlendedScore = r.ContentScore*contentWeight + r.CollaborativeScore*collaborativeWeight
		results = append(results, *r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].BlendedScore > results[j].BlendedScore
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// clamp01 clamps upstream scores into [0, 1]. Popularity fallback scores
// are raw affinity sums and can exceed 1; blending must stay a total
// function, so out-of-range values clamp rather than fail.
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
