// Package ranking scores insight candidates and orders qualified insights.
package ranking

import (
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// Family capacities: the raw volume at which a family's normalized score saturates.
const (
	analyticsCapacity = 100.0 // events
	lifecycleCapacity = 50.0  // transitions
	searchCapacity    = 100.0 // clicks
	adsCapacity       = 20.0  // conversions
)

// AnalyticsCapacity is the number of analytics events that saturates the analytics score.
const AnalyticsCapacity = int(analyticsCapacity)

// FamilySignals holds the records of each family that contribute to one candidate.
// An empty slice means the family is absent and carries no weight.
type FamilySignals struct {
	Analytics []types.AnalyticsEvent
	Lifecycle []types.LifecycleTransition
	Search    []types.SearchDemandRow
	Ads       []types.AdsPerformanceRow
}

// CompositeScore returns the weighted average of the normalized scores of the
// present families. It is 0 when no family is present or their weights sum to 0.
func CompositeScore(signals FamilySignals, weights types.Weights) float64 {
	totalScore := 0.0
	totalWeight := 0.0

	if len(signals.Analytics) > 0 {
		totalScore += weights.Analytics * normalize(float64(len(signals.Analytics)), analyticsCapacity)
		totalWeight += weights.Analytics
	}

	if len(signals.Lifecycle) > 0 {
		totalScore += weights.Lifecycle * normalize(float64(len(signals.Lifecycle)), lifecycleCapacity)
		totalWeight += weights.Lifecycle
	}

	if len(signals.Search) > 0 {
		clicks := 0.0
		for _, row := range signals.Search {
			clicks += row.Clicks
		}
		totalScore += weights.Search * normalize(clicks, searchCapacity)
		totalWeight += weights.Search
	}

	if len(signals.Ads) > 0 {
		conversions := 0.0
		for _, row := range signals.Ads {
			conversions += row.Conversions
		}
		totalScore += weights.Ads * normalize(conversions, adsCapacity)
		totalWeight += weights.Ads
	}

	if totalWeight <= 0 {
		return 0
	}

	score := totalScore / totalWeight
	// Ensure score is in valid range
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// normalize maps a raw volume onto [0, 1] against its capacity.
func normalize(value, capacity float64) float64 {
	if value <= 0 {
		return 0
	}
	if value >= capacity {
		return 1
	}
	return value / capacity
}
