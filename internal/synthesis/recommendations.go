package synthesis

import "github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"

// Recommendation texts attached to insights.
const (
	RecImproveRanking     = "Optimize content to improve search ranking"
	RecImproveCTR         = "Improve meta descriptions and titles to increase CTR"
	RecTargetedEvent      = "Create targeted marketing event for this query"
	RecLandingPage        = "Create landing page optimization campaign"
	RecABTesting          = "Set up A/B testing for conversion optimization"
	RecNurtureCampaign    = "Create nurture campaign for this lifecycle transition"
	RecCommonTouchpoints  = "Identify common touchpoints in successful journeys"
	RecScaleCampaign      = "Scale this high-performing campaign"
	RecApplyMessaging     = "Apply messaging insights to other channels"
	poorPositionThreshold = 10
)

func queryRecommendations(m types.InsightMetrics) []string {
	recs := make([]string, 0, 3)
	if m.AvgPosition != nil && *m.AvgPosition > poorPositionThreshold {
		recs = append(recs, RecImproveRanking)
	}
	if m.TotalImpressions > 1000 && m.TotalClicks < 50 {
		recs = append(recs, RecImproveCTR)
	}
	return append(recs, RecTargetedEvent)
}

func pageRecommendations(m types.InsightMetrics) []string {
	recs := []string{RecLandingPage}
	if m.TotalClicks > 100 {
		recs = append(recs, RecABTesting)
	}
	return recs
}

func journeyRecommendations() []string {
	return []string{RecNurtureCampaign, RecCommonTouchpoints}
}

func messageRecommendations(m types.InsightMetrics) []string {
	recs := make([]string, 0, 2)
	if m.ROI != nil && *m.ROI > 2 {
		recs = append(recs, RecScaleCampaign)
	}
	return append(recs, RecApplyMessaging)
}
