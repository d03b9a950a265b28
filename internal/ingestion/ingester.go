package ingestion

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// ErrNoLifecycleSource is returned when an Ingester has no lifecycle fetcher.
var ErrNoLifecycleSource = errors.New("lifecycle source is required")

// Ingester fetches all configured sources for a date range.
// Lifecycle is always required; the other sources are optional and their
// bundle fields stay nil when unset.
type Ingester struct {
	Analytics AnalyticsFetcher
	Lifecycle LifecycleFetcher
	Search    SearchFetcher
	Ads       AdsFetcher
	Logger    *zap.Logger
}

// Ingest runs every configured fetch concurrently and waits for all of them.
// Each fetch writes a distinct bundle field. The first failure cancels the
// others and is returned as a *FetchError; no partial bundle is returned.
func (in *Ingester) Ingest(ctx context.Context, dateRange types.DateRange) (*types.SignalBundle, error) {
	if in.Lifecycle == nil {
		return nil, ErrNoLifecycleSource
	}
	log := logger.OrNop(in.Logger)
	start, end := dateRange.Start, dateRange.End

	fetchStart := time.Now()
	bundle := &types.SignalBundle{}
	g, gCtx := errgroup.WithContext(ctx)

	if in.Analytics != nil {
		g.Go(func() error {
			events, err := in.Analytics.FetchEvents(gCtx, start, end)
			if err != nil {
				return &FetchError{Source: SourceAnalyticsEvents, Err: err}
			}
			bundle.AnalyticsEvents = events
			return nil
		})
		g.Go(func() error {
			conversions, err := in.Analytics.FetchConversions(gCtx, start, end)
			if err != nil {
				return &FetchError{Source: SourceAnalyticsConversions, Err: err}
			}
			bundle.Conversions = conversions
			return nil
		})
	}

	g.Go(func() error {
		transitions, err := in.Lifecycle.FetchTransitions(gCtx, start, end)
		if err != nil {
			return &FetchError{Source: SourceLifecycle, Err: err}
		}
		bundle.Lifecycle = transitions
		return nil
	})

	if in.Search != nil {
		g.Go(func() error {
			rows, err := in.Search.FetchSearchDemand(gCtx, start, end)
			if err != nil {
				return &FetchError{Source: SourceSearch, Err: err}
			}
			bundle.Search = rows
			return nil
		})
	}

	if in.Ads != nil {
		g.Go(func() error {
			rows, err := in.Ads.FetchAdsPerformance(gCtx, start, end)
			if err != nil {
				return &FetchError{Source: SourceAds, Err: err}
			}
			bundle.Ads = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("ingestion failed", zap.Error(err))
		return nil, err
	}

	counts := bundle.Counts()
	log.Info("ingested signals",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("analytics_events", counts.AnalyticsEvents),
		zap.Int("conversions", counts.Conversions),
		zap.Int("lifecycle", counts.Lifecycle),
		zap.Int("search", counts.Search),
		zap.Int("ads", counts.Ads),
		zap.Duration("elapsed", time.Since(fetchStart)))
	return bundle, nil
}

// Sources lists the names of the configured sources.
func (in *Ingester) Sources() []string {
	var names []string
	if in.Analytics != nil {
		names = append(names, SourceAnalyticsEvents, SourceAnalyticsConversions)
	}
	if in.Lifecycle != nil {
		names = append(names, SourceLifecycle)
	}
	if in.Search != nil {
		names = append(names, SourceSearch)
	}
	if in.Ads != nil {
		names = append(names, SourceAds)
	}
	return names
}
