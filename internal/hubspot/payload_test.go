package hubspot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

func fixedMapper() *PayloadMapper {
	return &PayloadMapper{
		AppID: "demand-synthesis-agent",
		Now:   func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	}
}

func sampleInsight() types.QualifiedInsight {
	return types.QualifiedInsight{
		ID:    "ins-1",
		Type:  types.InsightQuery,
		Name:  "crm software",
		Score: 0.8333,
		Metrics: types.InsightMetrics{
			TotalImpressions: 1500,
			TotalClicks:      83.5,
			TotalConversions: 0,
		},
		Recommendations: []string{"Optimize content to improve search ranking", "Create targeted marketing event for this query"},
	}
}

func TestPayloadMapper_ToEvent(t *testing.T) {
	ev := fixedMapper().ToEvent(sampleInsight())

	assert.Equal(t, "Query Campaign: crm software", ev.EventName)
	assert.Equal(t, "SEMINAR", ev.EventType)
	assert.Equal(t, int64(1_700_000_000_000), ev.StartDateTime)
	assert.Equal(t, int64(1_700_000_000_000+30*24*60*60*1000), ev.EndDateTime)
	assert.Equal(t, "demand-synthesis-agent", ev.EventOrganizer)
	assert.Equal(t, "ins-1", ev.ExternalEventID)
	assert.Equal(t,
		"Qualified query insight with score 0.83. Metrics: 1500 impressions, 83.5 clicks, 0 conversions. "+
			"Recommendations: Optimize content to improve search ranking; Create targeted marketing event for this query",
		ev.EventDescription)

	assert.Equal(t, "query", ev.CustomProperties["insightType"])
	assert.Equal(t, "0.8333", ev.CustomProperties["insightScore"])
	assert.Equal(t, "1500", ev.CustomProperties["totalImpressions"])
	assert.Equal(t, "83.5", ev.CustomProperties["totalClicks"])
	assert.Equal(t, "0", ev.CustomProperties["totalConversions"])

	var recs []string
	require.NoError(t, json.Unmarshal([]byte(ev.CustomProperties["recommendations"]), &recs))
	assert.Len(t, recs, 2)
}

func TestEventType(t *testing.T) {
	assert.Equal(t, "SEMINAR", EventType(types.InsightQuery))
	assert.Equal(t, "WEBINAR", EventType(types.InsightPage))
	assert.Equal(t, "WORKSHOP", EventType(types.InsightJourney))
	assert.Equal(t, "CONFERENCE", EventType(types.InsightMessage))
	assert.Equal(t, "SEMINAR", EventType("unknown"))
}

func TestEventDescription_NoRecommendations(t *testing.T) {
	in := types.QualifiedInsight{Type: types.InsightJourney, Score: 1, Metrics: types.InsightMetrics{TotalConversions: 60}}
	assert.Equal(t, "Qualified journey insight with score 1.00. Metrics: 0 impressions, 0 clicks, 60 conversions", EventDescription(in))
}

func TestEventName_Journey(t *testing.T) {
	in := types.QualifiedInsight{Type: types.InsightJourney, Name: "lead → customer"}
	assert.Equal(t, "Journey Campaign: lead → customer", EventName(in))
}

func TestNewPayloadMapper_DefaultAppID(t *testing.T) {
	assert.Equal(t, DefaultAppID, NewPayloadMapper("").AppID)
	assert.Equal(t, "custom", NewPayloadMapper("custom").AppID)
}

func TestPayloadMapper_NilRecommendationsEncodeAsEmptyList(t *testing.T) {
	in := sampleInsight()
	in.Recommendations = nil
	ev := fixedMapper().ToEvent(in)
	assert.Equal(t, "[]", ev.CustomProperties["recommendations"])
}

func TestRecommendationsJSON(t *testing.T) {
	assert.Equal(t, "[]", recommendationsJSON(nil))
	assert.Equal(t, `["Scale \"Spring\" campaign","Apply messaging insights to other channels"]`,
		recommendationsJSON([]string{`Scale "Spring" campaign`, "Apply messaging insights to other channels"}))
}
