package types

import "fmt"

// InsightType is the fixed taxonomy of insights the engine can produce.
type InsightType string

// Insight types
const (
	InsightQuery   InsightType = "query"
	InsightPage    InsightType = "page"
	InsightJourney InsightType = "journey"
	InsightMessage InsightType = "message"
)

// AllInsightTypes returns every insight type in synthesis order.
func AllInsightTypes() []InsightType {
	return []InsightType{InsightQuery, InsightPage, InsightJourney, InsightMessage}
}

// Valid reports whether t is one of the known insight types.
func (t InsightType) Valid() bool {
	switch t {
	case InsightQuery, InsightPage, InsightJourney, InsightMessage:
		return true
	}
	return false
}

// ParseInsightType converts a string into an InsightType.
func ParseInsightType(s string) (InsightType, error) {
	t := InsightType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown insight type %q", s)
	}
	return t, nil
}

// InsightSignals is the subset of raw records that contributed to an insight.
type InsightSignals struct {
	Analytics   []AnalyticsEvent      `json:"analytics,omitempty"`
	Conversions []AnalyticsConversion `json:"conversions,omitempty"`
	Lifecycle   []LifecycleTransition `json:"lifecycle,omitempty"`
	Search      []SearchDemandRow     `json:"search,omitempty"`
	Ads         []AdsPerformanceRow   `json:"ads,omitempty"`
}

// InsightMetrics are the aggregated counters of an insight.
// Optional values stay nil when they were not computed; nil is distinct from zero.
type InsightMetrics struct {
	TotalImpressions float64  `json:"total_impressions"`
	TotalClicks      float64  `json:"total_clicks"`
	TotalConversions float64  `json:"total_conversions"`
	AvgPosition      *float64 `json:"avg_position,omitempty"`
	TotalCost        *float64 `json:"total_cost,omitempty"`
	ROI              *float64 `json:"roi,omitempty"`
}

// QualifiedInsight is a scored group that passed every qualification gate.
type QualifiedInsight struct {
	ID              string         `json:"id"`
	Type            InsightType    `json:"type"`
	Name            string         `json:"name"`
	Score           float64        `json:"score"`
	Signals         InsightSignals `json:"signals"`
	Metrics         InsightMetrics `json:"metrics"`
	Recommendations []string       `json:"recommendations"`
}

// Float returns a pointer to v, for populating optional metrics.
func Float(v float64) *float64 {
	return &v
}
