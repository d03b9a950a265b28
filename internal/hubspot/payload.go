package hubspot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// DefaultAppID is the organizer name events are created under.
const DefaultAppID = "demand-synthesis-agent"

// EventWindow is how long a synthesized marketing event runs.
const EventWindow = 30 * 24 * time.Hour

var eventTypes = map[types.InsightType]string{
	types.InsightQuery:   "SEMINAR",
	types.InsightPage:    "WEBINAR",
	types.InsightJourney: "WORKSHOP",
	types.InsightMessage: "CONFERENCE",
}

// EventType returns the marketing-event category for an insight type.
// Unknown types fall back to SEMINAR.
func EventType(t types.InsightType) string {
	if et, ok := eventTypes[t]; ok {
		return et
	}
	return "SEMINAR"
}

// PayloadMapper converts insights into marketing-event payloads.
type PayloadMapper struct {
	AppID string
	Now   func() time.Time
}

// NewPayloadMapper creates a mapper using the wall clock.
func NewPayloadMapper(appID string) *PayloadMapper {
	if appID == "" {
		appID = DefaultAppID
	}
	return &PayloadMapper{AppID: appID, Now: time.Now}
}

// ToEvent builds the payload for insight. The event starts now, runs for
// EventWindow and is keyed by the insight id.
func (m *PayloadMapper) ToEvent(insight types.QualifiedInsight) types.MarketingEvent {
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}

	return types.MarketingEvent{
		EventName:        EventName(insight),
		EventType:        EventType(insight.Type),
		StartDateTime:    now.UnixMilli(),
		EndDateTime:      now.Add(EventWindow).UnixMilli(),
		EventDescription: EventDescription(insight),
		EventOrganizer:   m.AppID,
		ExternalEventID:  insight.ID,
		CustomProperties: map[string]string{
			"insightType":      string(insight.Type),
			"insightScore":     formatNumber(insight.Score),
			"totalImpressions": formatNumber(insight.Metrics.TotalImpressions),
			"totalClicks":      formatNumber(insight.Metrics.TotalClicks),
			"totalConversions": formatNumber(insight.Metrics.TotalConversions),
			"recommendations":  recommendationsJSON(insight.Recommendations),
		},
	}
}

// EventName is "<Type> Campaign: <name>" with the type capitalized.
func EventName(insight types.QualifiedInsight) string {
	label := string(insight.Type)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return fmt.Sprintf("%s Campaign: %s", label, insight.Name)
}

// EventDescription summarizes the score, metrics and recommendations of insight.
func EventDescription(insight types.QualifiedInsight) string {
	parts := []string{
		fmt.Sprintf("Qualified %s insight with score %.2f", insight.Type, insight.Score),
		fmt.Sprintf("Metrics: %s impressions, %s clicks, %s conversions",
			formatNumber(insight.Metrics.TotalImpressions),
			formatNumber(insight.Metrics.TotalClicks),
			formatNumber(insight.Metrics.TotalConversions)),
	}
	if len(insight.Recommendations) > 0 {
		parts = append(parts, "Recommendations: "+strings.Join(insight.Recommendations, "; "))
	}
	return strings.Join(parts, ". ")
}

// formatNumber prints integral values without a fractional part and others in
// their shortest exact form.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func recommendationsOrEmpty(recs []string) []string {
	if recs == nil {
		return []string{}
	}
	return recs
}

// recommendationsJSON encodes recs as a JSON array, [] when empty.
func recommendationsJSON(recs []string) string {
	// encoding a []string has no failure path
	data, _ := json.Marshal(recommendationsOrEmpty(recs))
	return string(data)
}
