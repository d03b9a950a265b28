package ingestion

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ranking"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const (
	ga4PageSize   = 10000
	ga4DateLayout = "20060102"
)

// GA4Source reads events and key events from the GA4 Data API.
type GA4Source struct {
	service    *analyticsdata.Service
	propertyID string
	log        *zap.Logger
}

// NewGA4Source creates a GA4 source for a numeric property id.
func NewGA4Source(ctx context.Context, propertyID string, log *zap.Logger, opts ...option.ClientOption) (*GA4Source, error) {
	if propertyID == "" {
		return nil, fmt.Errorf("GA4 property id is required")
	}
	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics data service: %w", err)
	}
	return &GA4Source{service: svc, propertyID: propertyID, log: logger.OrNop(log)}, nil
}

func (s *GA4Source) property() string {
	return "properties/" + s.propertyID
}

// FetchEvents returns analytics events for the range. The Data API reports
// aggregated counts, so each (event, page, date) row is expanded into one event
// per occurrence, capped at the analytics scoring capacity since further events
// cannot change a score.
func (s *GA4Source) FetchEvents(ctx context.Context, start, end time.Time) ([]types.AnalyticsEvent, error) {
	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{StartDate: start.Format(apiDateFormat), EndDate: end.Format(apiDateFormat)}},
		Dimensions: []*analyticsdata.Dimension{{Name: "eventName"}, {Name: "pagePath"}, {Name: "date"}},
		Metrics:    []*analyticsdata.Metric{{Name: "eventCount"}},
	}

	events := make([]types.AnalyticsEvent, 0)
	err := s.runReport(ctx, req, func(row *analyticsdata.Row) {
		if len(row.DimensionValues) < 3 || len(row.MetricValues) < 1 {
			return
		}
		date, err := time.Parse(ga4DateLayout, row.DimensionValues[2].Value)
		if err != nil {
			return
		}
		n := expandCount(row.MetricValues[0].Value)
		for i := 0; i < n; i++ {
			events = append(events, types.AnalyticsEvent{
				EventName: row.DimensionValues[0].Value,
				Page:      row.DimensionValues[1].Value,
				Timestamp: date,
			})
		}
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fetched GA4 events", zap.String("property", s.propertyID), zap.Int("events", len(events)))
	return events, nil
}

// FetchConversions returns key events for the range with their traffic attribution.
func (s *GA4Source) FetchConversions(ctx context.Context, start, end time.Time) ([]types.AnalyticsConversion, error) {
	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{StartDate: start.Format(apiDateFormat), EndDate: end.Format(apiDateFormat)}},
		Dimensions: []*analyticsdata.Dimension{
			{Name: "eventName"},
			{Name: "date"},
			{Name: "sessionSource"},
			{Name: "sessionMedium"},
			{Name: "sessionCampaignName"},
		},
		Metrics: []*analyticsdata.Metric{{Name: "keyEvents"}, {Name: "eventValue"}},
	}

	conversions := make([]types.AnalyticsConversion, 0)
	err := s.runReport(ctx, req, func(row *analyticsdata.Row) {
		if len(row.DimensionValues) < 5 || len(row.MetricValues) < 2 {
			return
		}
		n := expandCount(row.MetricValues[0].Value)
		if n == 0 {
			return
		}
		date, err := time.Parse(ga4DateLayout, row.DimensionValues[1].Value)
		if err != nil {
			return
		}

		var value *float64
		if total, err := strconv.ParseFloat(row.MetricValues[1].Value, 64); err == nil && total > 0 {
			value = types.Float(total / float64(n))
		}
		campaign := row.DimensionValues[4].Value
		if campaign == "(not set)" {
			campaign = ""
		}

		for i := 0; i < n; i++ {
			conversions = append(conversions, types.AnalyticsConversion{
				ConversionName: row.DimensionValues[0].Value,
				Timestamp:      date,
				Value:          value,
				Source:         row.DimensionValues[2].Value,
				Medium:         row.DimensionValues[3].Value,
				Campaign:       campaign,
			})
		}
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fetched GA4 conversions", zap.String("property", s.propertyID), zap.Int("conversions", len(conversions)))
	return conversions, nil
}

// runReport pages through a report, calling fn for each row.
func (s *GA4Source) runReport(ctx context.Context, req *analyticsdata.RunReportRequest, fn func(*analyticsdata.Row)) error {
	req.Limit = ga4PageSize
	var offset int64
	for {
		req.Offset = offset
		resp, err := s.service.Properties.RunReport(s.property(), req).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("GA4 report failed: %w", err)
		}
		for _, row := range resp.Rows {
			if row != nil {
				fn(row)
			}
		}
		offset += int64(len(resp.Rows))
		if len(resp.Rows) == 0 || offset >= resp.RowCount {
			return nil
		}
	}
}

// expandCount parses an aggregated metric count and caps it at the analytics capacity.
func expandCount(raw string) int {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n <= 0 {
		return 0
	}
	if n > float64(ranking.AnalyticsCapacity) {
		return ranking.AnalyticsCapacity
	}
	return int(n)
}
