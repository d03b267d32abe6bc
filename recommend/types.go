// BookGenie - Library Recommendation and Feedback Learning Engine
// Copyright 2026 Singason Simon (SingasonSimon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SingasonSimon/bookgenie

package recommend

import (
	"context"
	"time"
)

// InteractionKind classifies typed user-book interactions.
type InteractionKind int

const (
	// InteractionView indicates the user opened a book's detail page.
	InteractionView InteractionKind = iota
	// InteractionDownload indicates the user downloaded the book file.
	InteractionDownload
	// InteractionBookmark indicates the user bookmarked the book.
	InteractionBookmark
	// InteractionShare indicates the user shared the book.
	InteractionShare
	// InteractionOther covers custom interaction kinds with a caller-supplied value.
	InteractionOther
)

// String returns a human-readable name for the interaction kind.
func (k InteractionKind) String() string {
	switch k {
	case InteractionView:
		return "view"
	case InteractionDownload:
		return "download"
	case InteractionBookmark:
		return "bookmark"
	case InteractionShare:
		return "share"
	case InteractionOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseInteractionKind maps a stored kind string to its enum value.
// Unrecognized kinds map to InteractionOther.
func ParseInteractionKind(s string) InteractionKind {
	switch s {
	case "view":
		return InteractionView
	case "download":
		return InteractionDownload
	case "bookmark":
		return InteractionBookmark
	case "share":
		return InteractionShare
	default:
		return InteractionOther
	}
}

// Weight returns the capped affinity contribution for this interaction kind.
// Count is the number of occurrences and avgValue the mean magnitude for
// InteractionOther rows (defaults to 1 when non-positive).
func (k InteractionKind) Weight(count int, avgValue float64) float64 {
	switch k {
	case InteractionView:
		// 0.1 per view, capped at 5 views.
		n := count
		if n > 5 {
			n = 5
		}
		return 0.1 * float64(n)
	case InteractionDownload:
		return 0.6
	case InteractionBookmark:
		return 0.5
	case InteractionShare:
		return 0.4
	default:
		if avgValue <= 0 {
			avgValue = 1.0
		}
		return avgValue * 0.3
	}
}

// EngagementRow is one aggregated implicit-engagement record: how often and
// how long a user read a book.
type EngagementRow struct {
	// UserID is the internal user identifier.
	UserID int `json:"user_id"`

	// ItemID is the book identifier.
	ItemID int `json:"item_id"`

	// Count is the number of reading sessions.
	Count int `json:"count"`

	// TotalMinutes is the summed reading duration in minutes.
	TotalMinutes float64 `json:"total_minutes"`
}

// RatingRow is one aggregated explicit-rating record.
type RatingRow struct {
	// UserID is the internal user identifier.
	UserID int `json:"user_id"`

	// ItemID is the book identifier.
	ItemID int `json:"item_id"`

	// AvgRating is the mean rating on the 1-5 scale.
	AvgRating float64 `json:"avg_rating"`

	// Helpful marks whether the user flagged the book as helpful.
	// Only helpful rows with a positive rating contribute to affinity.
	Helpful bool `json:"helpful"`
}

// InteractionRow is one aggregated typed-interaction record.
type InteractionRow struct {
	// UserID is the internal user identifier.
	UserID int `json:"user_id"`

	// ItemID is the book identifier.
	ItemID int `json:"item_id"`

	// Kind classifies the interaction.
	Kind InteractionKind `json:"kind"`

	// Count is the number of occurrences of this kind.
	Count int `json:"count"`

	// AvgValue is the mean interaction magnitude. Only used for
	// InteractionOther; defaults to 1 when zero.
	AvgValue float64 `json:"avg_value,omitempty"`
}

// Signals bundles the three interaction source feeds consumed by
// BuildMatrix. Each feed is pre-aggregated per (user, item) pair by the
// storage layer.
type Signals struct {
	Engagement   []EngagementRow
	Ratings      []RatingRow
	Interactions []InteractionRow
}

// Item is a book with the metadata needed for content-based ranking.
type Item struct {
	// ID is the book identifier.
	ID int `json:"id"`

	// Title is the book title.
	Title string `json:"title"`

	// Author is the book author.
	Author string `json:"author,omitempty"`

	// Synopsis is the abstract/summary text.
	Synopsis string `json:"synopsis,omitempty"`

	// Genre is the primary genre name.
	Genre string `json:"genre,omitempty"`

	// Tags is a slice of free-form tag strings.
	Tags []string `json:"tags,omitempty"`
}

// ItemScore is a collaborative recommendation for a single book.
type ItemScore struct {
	// ItemID is the book identifier.
	ItemID int `json:"item_id"`

	// Score is the accumulated recommendation score. Collaborative scores
	// are neighbor-weighted affinities; popularity scores are raw affinity
	// sums and may exceed 1.
	Score float64 `json:"score"`

	// Method is the producing method: "collaborative" or "popularity".
	Method string `json:"method"`
}

// Neighbor is a similar user with their similarity to the target user.
type Neighbor struct {
	// UserID is the neighbor's user identifier.
	UserID int `json:"user_id"`

	// Similarity is the cosine similarity of affinity rows, in (0, 1].
	Similarity float64 `json:"similarity"`
}

// ContentResult is a semantic-retrieval match for a single book.
type ContentResult struct {
	// ItemID is the book identifier.
	ItemID int `json:"item_id"`

	// Similarity is the cosine similarity to the query vector, in (0, 1].
	Similarity float64 `json:"similarity"`

	// RelevancePct is the similarity expressed as a percentage,
	// rounded to one decimal place.
	RelevancePct float64 `json:"relevance_pct"`
}

// Result is one hybrid recommendation with component provenance.
type Result struct {
	// ItemID is the book identifier.
	ItemID int `json:"item_id"`

	// ContentScore is the clamped content similarity in [0, 1];
	// 0 when the item was absent from the content result set.
	ContentScore float64 `json:"content_score"`

	// CollaborativeScore is the clamped collaborative score in [0, 1];
	// 0 when the item was absent from the collaborative result set.
	CollaborativeScore float64 `json:"collaborative_score"`

	// BlendedScore is the weight-normalized combination in [0, 1].
	BlendedScore float64 `json:"blended_score"`

	// ContentPct and CollaborativePct are the component scores as
	// percentages, rounded to one decimal place.
	ContentPct       float64 `json:"content_pct"`
	CollaborativePct float64 `json:"collaborative_pct"`

	// HasContent and HasCollaborative flag which signals contributed,
	// for observability and downstream A/B analysis.
	HasContent       bool `json:"has_content"`
	HasCollaborative bool `json:"has_collaborative"`
}

// Request is a hybrid recommendation request.
type Request struct {
	// UserID is the user to generate recommendations for.
	UserID int `json:"user_id"`

	// K is the number of recommendations to return.
	// Defaults to Config.DefaultK if zero.
	K int `json:"k,omitempty"`

	// ContentWeight and CollaborativeWeight control the blend.
	// Both zero means Config defaults; weights are normalized before use.
	ContentWeight       float64 `json:"content_weight,omitempty"`
	CollaborativeWeight float64 `json:"collaborative_weight,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is a hybrid recommendation response.
type Response struct {
	// Results is the ordered list of recommendations.
	Results []Result `json:"results"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the recommendations are for.
	UserID int `json:"user_id"`

	// ContentCount and CollaborativeCount are the component result sizes
	// before blending.
	ContentCount       int `json:"content_count"`
	CollaborativeCount int `json:"collaborative_count"`

	// LatencyMS is the total recommendation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// CacheHit indicates whether the result was served from cache.
	CacheHit bool `json:"cache_hit"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// DataProvider defines the interface for fetching recommendation inputs.
// This is typically implemented by the storage layer. The affinity matrix
// is rebuilt from these feeds on demand rather than maintained
// incrementally.
type DataProvider interface {
	// GetUsers returns all known user identifiers.
	GetUsers(ctx context.Context) ([]int, error)

	// GetItems returns all known books with metadata.
	GetItems(ctx context.Context) ([]Item, error)

	// GetSignals returns the three interaction source feeds.
	GetSignals(ctx context.Context) (Signals, error)

	// GetRecentItems returns the user's most recently engaged books,
	// newest first, at most limit entries.
	GetRecentItems(ctx context.Context, userID, limit int) ([]Item, error)
}
