// Package ingestion fetches raw marketing signals from every configured source
// and assembles them into a SignalBundle.
package ingestion

import (
	"context"
	"time"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// AnalyticsFetcher reads behavioral events and conversions.
type AnalyticsFetcher interface {
	FetchEvents(ctx context.Context, start, end time.Time) ([]types.AnalyticsEvent, error)
	FetchConversions(ctx context.Context, start, end time.Time) ([]types.AnalyticsConversion, error)
}

// LifecycleFetcher reads CRM lifecycle-stage transitions.
type LifecycleFetcher interface {
	FetchTransitions(ctx context.Context, start, end time.Time) ([]types.LifecycleTransition, error)
}

// SearchFetcher reads organic search demand.
type SearchFetcher interface {
	FetchSearchDemand(ctx context.Context, start, end time.Time) ([]types.SearchDemandRow, error)
}

// AdsFetcher reads paid-ads keyword performance.
type AdsFetcher interface {
	FetchAdsPerformance(ctx context.Context, start, end time.Time) ([]types.AdsPerformanceRow, error)
}

// Source names used in errors and logs.
const (
	SourceAnalyticsEvents      = "analytics_events"
	SourceAnalyticsConversions = "analytics_conversions"
	SourceLifecycle            = "lifecycle"
	SourceSearch               = "search"
	SourceAds                  = "ads"
)
