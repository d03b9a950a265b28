package grouping

import (
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// SearchMetrics aggregates a group of search rows. Search data carries no
// conversions, so TotalConversions is always zero.
func SearchMetrics(rows []types.SearchDemandRow) types.InsightMetrics {
	var m types.InsightMetrics
	for _, r := range rows {
		m.TotalImpressions += r.Impressions
		m.TotalClicks += r.Clicks
	}
	if len(rows) > 0 {
		m.AvgPosition = types.Float(AveragePosition(rows))
	}
	return m
}

// AdsMetrics aggregates a group of ads rows. ROI is only set when cost is positive.
func AdsMetrics(rows []types.AdsPerformanceRow) types.InsightMetrics {
	var m types.InsightMetrics
	var cost float64
	for _, r := range rows {
		m.TotalImpressions += r.Impressions
		m.TotalClicks += r.Clicks
		m.TotalConversions += r.Conversions
		cost += r.Cost
	}
	m.TotalCost = types.Float(cost)
	if cost > 0 {
		m.ROI = types.Float((m.TotalConversions*100 - cost) / cost)
	}
	return m
}

// JourneyMetrics counts each transition in the group as one conversion.
func JourneyMetrics(rows []types.LifecycleTransition) types.InsightMetrics {
	return types.InsightMetrics{TotalConversions: float64(len(rows))}
}

// AveragePosition is the arithmetic mean of row positions, 0 for no rows.
func AveragePosition(rows []types.SearchDemandRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += r.Position
	}
	return sum / float64(len(rows))
}

// AverageCTR is the mean of the per-row click-through rates, 0 for no rows.
func AverageCTR(rows []types.SearchDemandRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += r.CTR
	}
	return sum / float64(len(rows))
}
