package ingestion

import (
	"sort"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/grouping"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// HighPerformingQueries returns the rows meeting both the impression and CTR floors.
func HighPerformingQueries(rows []types.SearchDemandRow, minImpressions, minCTR float64) []types.SearchDemandRow {
	var out []types.SearchDemandRow
	for _, r := range rows {
		if r.Impressions >= minImpressions && r.CTR >= minCTR {
			out = append(out, r)
		}
	}
	return out
}

// CampaignROI values each conversion at conversionValue and returns
// (value - cost) / cost, or 0 when nothing was spent.
func CampaignROI(rows []types.AdsPerformanceRow, conversionValue float64) float64 {
	var cost, conversions float64
	for _, r := range rows {
		cost += r.Cost
		conversions += r.Conversions
	}
	if cost <= 0 {
		return 0
	}
	return (conversions*conversionValue - cost) / cost
}

// TopKeywords returns rows with at least minConversions, most conversions first.
func TopKeywords(rows []types.AdsPerformanceRow, minConversions float64) []types.AdsPerformanceRow {
	var out []types.AdsPerformanceRow
	for _, r := range rows {
		if r.Conversions >= minConversions {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Conversions > out[j].Conversions
	})
	return out
}

// TransitionCount is the number of contacts that made one stage transition.
type TransitionCount struct {
	Journey grouping.Journey `json:"journey"`
	Count   int              `json:"count"`
}

// TransitionCounts counts transitions per stage pair in first-appearance order.
func TransitionCounts(transitions []types.LifecycleTransition) []TransitionCount {
	groups := grouping.GroupBy(transitions, grouping.ByJourney)
	out := make([]TransitionCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, TransitionCount{Journey: g.Key, Count: len(g.Rows)})
	}
	return out
}

// EventPattern is a page and event name that occur together.
type EventPattern struct {
	Page      string
	EventName string
}

// Key renders the pattern as "page_eventName".
func (p EventPattern) Key() string {
	return p.Page + "_" + p.EventName
}

// EventPatterns groups analytics events by page and event name.
func EventPatterns(events []types.AnalyticsEvent) []grouping.Group[EventPattern, types.AnalyticsEvent] {
	return grouping.GroupBy(events, func(e types.AnalyticsEvent) EventPattern {
		return EventPattern{Page: e.Page, EventName: e.EventName}
	})
}
