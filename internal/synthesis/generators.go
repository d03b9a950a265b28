package synthesis

import (
	"strings"

	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/grouping"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ranking"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

func (e *Engine) queryInsights(rows []types.SearchDemandRow, conversions []types.AnalyticsConversion) []types.QualifiedInsight {
	insights := make([]types.QualifiedInsight, 0)
	for _, group := range grouping.GroupBy(rows, grouping.ByQuery) {
		metrics := grouping.SearchMetrics(group.Rows)
		if !e.passesImpressions(types.InsightQuery, group.Key, metrics) {
			continue
		}

		score, ok := e.accept(types.InsightQuery, group.Key, ranking.FamilySignals{Search: group.Rows})
		if !ok {
			continue
		}

		insights = append(insights, types.QualifiedInsight{
			ID:    e.newID(types.InsightQuery, group.Key),
			Type:  types.InsightQuery,
			Name:  group.Key,
			Score: score,
			Signals: types.InsightSignals{
				Search:      group.Rows,
				Conversions: relatedConversions(conversions, group.Key),
			},
			Metrics:         metrics,
			Recommendations: queryRecommendations(metrics),
		})
	}
	return insights
}

func (e *Engine) pageInsights(rows []types.SearchDemandRow, events []types.AnalyticsEvent) []types.QualifiedInsight {
	insights := make([]types.QualifiedInsight, 0)
	for _, group := range grouping.GroupBy(rows, grouping.ByPage) {
		metrics := grouping.SearchMetrics(group.Rows)
		if !e.passesImpressions(types.InsightPage, group.Key, metrics) {
			continue
		}

		pageEvents := eventsForPage(events, group.Key)
		score, ok := e.accept(types.InsightPage, group.Key, ranking.FamilySignals{
			Search:    group.Rows,
			Analytics: pageEvents,
		})
		if !ok {
			continue
		}

		insights = append(insights, types.QualifiedInsight{
			ID:    e.newID(types.InsightPage, group.Key),
			Type:  types.InsightPage,
			Name:  group.Key,
			Score: score,
			Signals: types.InsightSignals{
				Search:    group.Rows,
				Analytics: pageEvents,
			},
			Metrics:         metrics,
			Recommendations: pageRecommendations(metrics),
		})
	}
	return insights
}

// journeyInsights has no pre-gate; every transition pair goes straight to scoring.
func (e *Engine) journeyInsights(transitions []types.LifecycleTransition) []types.QualifiedInsight {
	insights := make([]types.QualifiedInsight, 0)
	for _, group := range grouping.GroupBy(transitions, grouping.ByJourney) {
		name := group.Key.String()
		score, ok := e.accept(types.InsightJourney, name, ranking.FamilySignals{Lifecycle: group.Rows})
		if !ok {
			continue
		}

		insights = append(insights, types.QualifiedInsight{
			ID:              e.newID(types.InsightJourney, name),
			Type:            types.InsightJourney,
			Name:            name,
			Score:           score,
			Signals:         types.InsightSignals{Lifecycle: group.Rows},
			Metrics:         grouping.JourneyMetrics(group.Rows),
			Recommendations: journeyRecommendations(),
		})
	}
	return insights
}

func (e *Engine) messageInsights(rows []types.AdsPerformanceRow) []types.QualifiedInsight {
	insights := make([]types.QualifiedInsight, 0)
	for _, group := range grouping.GroupBy(rows, grouping.ByCampaign) {
		metrics := grouping.AdsMetrics(group.Rows)
		if metrics.TotalConversions < e.config.Thresholds.MinConversions {
			e.log.Debug("group below conversion threshold",
				zap.String("name", group.Key),
				zap.Float64("conversions", metrics.TotalConversions))
			continue
		}

		score, ok := e.accept(types.InsightMessage, group.Key, ranking.FamilySignals{Ads: group.Rows})
		if !ok {
			continue
		}

		insights = append(insights, types.QualifiedInsight{
			ID:              e.newID(types.InsightMessage, group.Key),
			Type:            types.InsightMessage,
			Name:            group.Key,
			Score:           score,
			Signals:         types.InsightSignals{Ads: group.Rows},
			Metrics:         metrics,
			Recommendations: messageRecommendations(metrics),
		})
	}
	return insights
}

func (e *Engine) passesImpressions(insightType types.InsightType, name string, metrics types.InsightMetrics) bool {
	if metrics.TotalImpressions >= e.config.Thresholds.MinImpressions {
		return true
	}
	e.log.Debug("group below impression threshold",
		zap.String("type", string(insightType)),
		zap.String("name", name),
		zap.Float64("impressions", metrics.TotalImpressions))
	return false
}

// eventsForPage returns the analytics events recorded on exactly this page.
func eventsForPage(events []types.AnalyticsEvent, page string) []types.AnalyticsEvent {
	var matched []types.AnalyticsEvent
	for _, ev := range events {
		if ev.Page == page {
			matched = append(matched, ev)
		}
	}
	return matched
}

// relatedConversions returns conversions whose campaign mentions the query, ignoring case.
// They are attached for traceability and do not affect the score.
func relatedConversions(conversions []types.AnalyticsConversion, query string) []types.AnalyticsConversion {
	needle := strings.ToLower(query)
	var matched []types.AnalyticsConversion
	for _, c := range conversions {
		if c.Campaign == "" {
			continue
		}
		if strings.Contains(strings.ToLower(c.Campaign), needle) {
			matched = append(matched, c)
		}
	}
	return matched
}
