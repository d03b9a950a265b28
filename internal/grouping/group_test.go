package grouping

import (
	"testing"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBy_PreservesFirstAppearanceOrder(t *testing.T) {
	rows := []types.SearchDemandRow{
		{Query: "b", Clicks: 1},
		{Query: "a", Clicks: 2},
		{Query: "b", Clicks: 3},
		{Query: "c", Clicks: 4},
		{Query: "a", Clicks: 5},
	}

	groups := GroupBy(rows, ByQuery)
	require.Len(t, groups, 3)
	assert.Equal(t, "b", groups[0].Key)
	assert.Equal(t, "a", groups[1].Key)
	assert.Equal(t, "c", groups[2].Key)

	// rows keep input order within a group
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, 1.0, groups[0].Rows[0].Clicks)
	assert.Equal(t, 3.0, groups[0].Rows[1].Clicks)
}

func TestGroupBy_PartitionsEveryRow(t *testing.T) {
	rows := []types.SearchDemandRow{
		{Page: "/x"}, {Page: "/y"}, {Page: "/x"}, {Page: "/z"}, {Page: "/y"}, {Page: "/x"},
	}

	total := 0
	for _, g := range GroupBy(rows, ByPage) {
		for _, r := range g.Rows {
			assert.Equal(t, g.Key, r.Page)
		}
		total += len(g.Rows)
	}
	assert.Equal(t, len(rows), total)
}

func TestGroupBy_KeysAreExact(t *testing.T) {
	rows := []types.SearchDemandRow{
		{Query: "CRM"}, {Query: "crm"}, {Query: "crm "},
	}
	assert.Len(t, GroupBy(rows, ByQuery), 3)
}

func TestGroupBy_Empty(t *testing.T) {
	groups := GroupBy([]types.AdsPerformanceRow(nil), ByCampaign)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestByJourney_DistinctPairs(t *testing.T) {
	transitions := []types.LifecycleTransition{
		{FromStage: "lead", ToStage: "mql"},
		{FromStage: "mql", ToStage: "sql"},
		{FromStage: "lead", ToStage: "mql"},
		// a pair whose concatenation collides with another must not merge
		{FromStage: "lead → mql", ToStage: ""},
	}

	groups := GroupBy(transitions, ByJourney)
	require.Len(t, groups, 3)
	assert.Equal(t, "lead → mql", groups[0].Key.String())
	assert.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "mql → sql", groups[1].Key.String())
}

func TestSearchMetrics(t *testing.T) {
	rows := []types.SearchDemandRow{
		{Impressions: 1500, Clicks: 40, Position: 12},
		{Impressions: 500, Clicks: 20, Position: 8},
	}

	m := SearchMetrics(rows)
	assert.Equal(t, 2000.0, m.TotalImpressions)
	assert.Equal(t, 60.0, m.TotalClicks)
	assert.Equal(t, 0.0, m.TotalConversions)
	require.NotNil(t, m.AvgPosition)
	assert.InDelta(t, 10.0, *m.AvgPosition, 1e-9)
	assert.Nil(t, m.ROI)
	assert.Nil(t, m.TotalCost)
}

func TestAdsMetrics_ROI(t *testing.T) {
	rows := []types.AdsPerformanceRow{
		{Impressions: 100, Clicks: 10, Conversions: 3, Cost: 50},
		{Impressions: 200, Clicks: 20, Conversions: 2, Cost: 50},
	}

	m := AdsMetrics(rows)
	assert.Equal(t, 300.0, m.TotalImpressions)
	assert.Equal(t, 30.0, m.TotalClicks)
	assert.Equal(t, 5.0, m.TotalConversions)
	require.NotNil(t, m.TotalCost)
	assert.Equal(t, 100.0, *m.TotalCost)
	require.NotNil(t, m.ROI)
	assert.InDelta(t, 4.0, *m.ROI, 1e-9)
}

func TestAdsMetrics_ZeroCostLeavesROIUnset(t *testing.T) {
	m := AdsMetrics([]types.AdsPerformanceRow{{Conversions: 5, Cost: 0}})
	assert.Nil(t, m.ROI)
	require.NotNil(t, m.TotalCost)
	assert.Equal(t, 0.0, *m.TotalCost)
}

func TestJourneyMetrics(t *testing.T) {
	m := JourneyMetrics(make([]types.LifecycleTransition, 7))
	assert.Equal(t, 7.0, m.TotalConversions)
	assert.Equal(t, 0.0, m.TotalImpressions)
	assert.Equal(t, 0.0, m.TotalClicks)
}

func TestAverageCTR(t *testing.T) {
	assert.Equal(t, 0.0, AverageCTR(nil))
	assert.InDelta(t, 0.15, AverageCTR([]types.SearchDemandRow{{CTR: 0.1}, {CTR: 0.2}}), 1e-9)
}
