// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors,
// in [-1, 1]. Returns 0 when the vectors differ in length or either has
// zero magnitude, so ranking stays a total function over its score domain.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// UserSimilarity computes the cosine similarity between two users' affinity
// rows. Returns 0 when either user is unknown to the matrix.
func (m *Matrix) UserSimilarity(userA, userB int) float64 {
	a := m.Row(userA)
	b := m.Row(userB)
	if a == nil || b == nil {
		return 0
	}
	return CosineSimilarity(a, b)
}

// TopNeighbors returns up to k users most similar to the target user,
// sorted by similarity descending. Users with non-positive similarity are
// discarded. Ties keep matrix iteration order (the sort is stable on input
// order). Returns nil for a user unknown to the matrix.
func (m *Matrix) TopNeighbors(userID, k int) []Neighbor {
	target := m.Row(userID)
	if target == nil || k <= 0 {
		return nil
	}

	neighbors := make([]Neighbor, 0, len(m.Users))
	for _, otherID := range m.Users {
		if otherID == userID {
			continue
		}

		sim := CosineSimilarity(target, m.Row(otherID))
		if sim > 0 {
			neighbors = append(neighbors, Neighbor{UserID: otherID, Similarity: sim})
		}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}
