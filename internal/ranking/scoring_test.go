package ranking

import (
	"testing"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
	"github.com/stretchr/testify/assert"
)

func searchRows(clicks ...float64) []types.SearchDemandRow {
	rows := make([]types.SearchDemandRow, 0, len(clicks))
	for _, c := range clicks {
		rows = append(rows, types.SearchDemandRow{Clicks: c})
	}
	return rows
}

func TestCompositeScore_NoFamilies(t *testing.T) {
	assert.Equal(t, 0.0, CompositeScore(FamilySignals{}, types.DefaultWeights()))
}

func TestCompositeScore_SingleFamilyIgnoresOtherWeights(t *testing.T) {
	// 60 clicks against a capacity of 100; only the search weight applies
	score := CompositeScore(FamilySignals{Search: searchRows(40, 20)}, types.DefaultWeights())
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestCompositeScore_Saturates(t *testing.T) {
	score := CompositeScore(FamilySignals{Search: searchRows(500)}, types.DefaultWeights())
	assert.Equal(t, 1.0, score)

	ads := []types.AdsPerformanceRow{{Conversions: 15}, {Conversions: 10}}
	assert.Equal(t, 1.0, CompositeScore(FamilySignals{Ads: ads}, types.DefaultWeights()))
}

func TestCompositeScore_WeightedAverageOfPresentFamilies(t *testing.T) {
	weights := types.Weights{Analytics: 0.25, Lifecycle: 0.35, Search: 0.20, Ads: 0.20}
	signals := FamilySignals{
		Analytics: make([]types.AnalyticsEvent, 50), // 0.5
		Search:    searchRows(100),                  // 1.0
	}

	// (0.25*0.5 + 0.20*1.0) / 0.45
	expected := (0.25*0.5 + 0.20*1.0) / 0.45
	assert.InDelta(t, expected, CompositeScore(signals, weights), 1e-9)
}

func TestCompositeScore_Lifecycle(t *testing.T) {
	signals := FamilySignals{Lifecycle: make([]types.LifecycleTransition, 25)}
	assert.InDelta(t, 0.5, CompositeScore(signals, types.DefaultWeights()), 1e-9)
}

func TestCompositeScore_ZeroWeights(t *testing.T) {
	signals := FamilySignals{Search: searchRows(80)}
	assert.Equal(t, 0.0, CompositeScore(signals, types.Weights{}))
}

func TestCompositeScore_PresentFamilyWithZeroVolume(t *testing.T) {
	// present but empty of clicks: contributes weight with a zero score
	signals := FamilySignals{
		Search:    searchRows(0),
		Lifecycle: make([]types.LifecycleTransition, 50),
	}
	weights := types.Weights{Search: 0.5, Lifecycle: 0.5}
	assert.InDelta(t, 0.5, CompositeScore(signals, weights), 1e-9)
}

func TestCompositeScore_AlwaysInRange(t *testing.T) {
	cases := []FamilySignals{
		{Search: searchRows(1)},
		{Search: searchRows(1e9)},
		{Ads: []types.AdsPerformanceRow{{Conversions: 3}}},
		{Analytics: make([]types.AnalyticsEvent, 1000), Lifecycle: make([]types.LifecycleTransition, 1)},
	}
	for _, c := range cases {
		score := CompositeScore(c, types.Weights{Analytics: 3, Lifecycle: 0.1, Search: 7, Ads: 0.01})
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
