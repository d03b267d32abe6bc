// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

import "sort"

const (
	// MethodCollaborative tags results produced by neighbor-weighted voting.
	MethodCollaborative = "collaborative"

	// MethodPopularity tags results produced by the cold-start fallback.
	MethodPopularity = "popularity"
)

const (
	// coldStartMinItems is the minimum number of positively-engaged items
	// a user needs before neighbor-based recommendation applies.
	coldStartMinItems = 3

	// neighborPool is how many nearest neighbors feed the weighted vote.
	neighborPool = 20
)

// Collaborative scores candidate books for a user by neighbor-weighted
// voting over the affinity matrix, returning at most k results sorted by
// score descending.
//
// Cold-start policy: when the user has engaged with fewer than three items,
// or no other user has positive similarity, the result falls back to
// global popularity (summed affinity across all other users, excluding
// items the user has already engaged with) tagged MethodPopularity.
//
// minSimilarity discards neighbors below the threshold before their
// similarities are normalized to sum to 1 for weighted voting.
func Collaborative(m *Matrix, userID, k int, minSimilarity float64) []ItemScore {
	if m == nil || k <= 0 {
		return nil
	}
	if _, ok := m.Scores[userID]; !ok {
		return nil
	}

	engaged, _ := m.EngagedItems(userID)

	if len(engaged) < coldStartMinItems {
		return popularityFallback(m, userID, engaged, k)
	}

	neighbors := m.TopNeighbors(userID, neighborPool)
	if len(neighbors) == 0 {
		return popularityFallback(m, userID, engaged, k)
	}

	var totalSimilarity float64
	for _, n := range neighbors {
		totalSimilarity += n.Similarity
	}

	scores := make(map[int]float64)
	for _, n := range neighbors {
		if n.Similarity < minSimilarity {
			continue
		}

		// Normalized similarity acts as the voting weight. A zero
		// denominator yields zero weight, never a division error.
		var weight float64
		if totalSimilarity > 0 {
			weight = n.Similarity / totalSimilarity
		}

		for itemID, score := range m.Scores[n.UserID] {
			if score <= 0 {
				continue
			}
			if _, seen := engaged[itemID]; seen {
				continue
			}
			scores[itemID] += weight * score
		}
	}

	return rankScores(m, scores, k, MethodCollaborative)
}

// popularityFallback sums every other user's affinity per item, excluding
// items the target user has already engaged with.
func popularityFallback(m *Matrix, userID int, engaged map[int]struct{}, k int) []ItemScore {
	popularity := make(map[int]float64)

	for _, otherID := range m.Users {
		if otherID == userID {
			continue
		}
		for itemID, score := range m.Scores[otherID] {
			if score <= 0 {
				continue
			}
			if _, seen := engaged[itemID]; seen {
				continue
			}
			popularity[itemID] += score
		}
	}

	return rankScores(m, popularity, k, MethodPopularity)
}

// rankScores converts a score map into a sorted top-k slice. Iterating the
// matrix item order before sorting keeps ties stable across calls.
func rankScores(m *Matrix, scores map[int]float64, k int, method string) []ItemScore {
	ranked := make([]ItemScore, 0, len(scores))
	for _, itemID := range m.Items {
		if score, ok := scores[itemID]; ok {
			ranked = append(ranked, ItemScore{ItemID: itemID, Score: score, Method: method})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
