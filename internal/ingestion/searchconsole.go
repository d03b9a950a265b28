package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// searchConsoleRowLimit is the largest page the Search Analytics API returns.
const searchConsoleRowLimit = 25000

// apiDateFormat is the date format used by the Google reporting APIs.
const apiDateFormat = "2006-01-02"

// SearchConsoleSource reads query/page demand from Google Search Console.
type SearchConsoleSource struct {
	service *searchconsole.Service
	siteURL string
	log     *zap.Logger
}

// NewSearchConsoleSource creates a Search Console source for siteURL.
// Credentials and endpoints are supplied as client options.
func NewSearchConsoleSource(ctx context.Context, siteURL string, log *zap.Logger, opts ...option.ClientOption) (*SearchConsoleSource, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("search console site URL is required")
	}
	svc, err := searchconsole.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search console service: %w", err)
	}
	return &SearchConsoleSource{service: svc, siteURL: siteURL, log: logger.OrNop(log)}, nil
}

// FetchSearchDemand returns one row per (query, page, date) in the range, paging until exhausted.
func (s *SearchConsoleSource) FetchSearchDemand(ctx context.Context, start, end time.Time) ([]types.SearchDemandRow, error) {
	rows := make([]types.SearchDemandRow, 0)
	var startRow int64

	for {
		req := &searchconsole.SearchAnalyticsQueryRequest{
			StartDate:  start.Format(apiDateFormat),
			EndDate:    end.Format(apiDateFormat),
			Dimensions: []string{"query", "page", "date"},
			RowLimit:   searchConsoleRowLimit,
			StartRow:   startRow,
		}

		resp, err := s.service.Searchanalytics.Query(s.siteURL, req).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("search analytics query failed: %w", err)
		}

		for _, r := range resp.Rows {
			row, ok := searchRowFromAPI(r)
			if !ok {
				continue
			}
			rows = append(rows, row)
		}

		if len(resp.Rows) < searchConsoleRowLimit {
			break
		}
		startRow += int64(len(resp.Rows))
	}

	s.log.Info("fetched search console rows",
		zap.String("site", s.siteURL),
		zap.Int("rows", len(rows)))
	return rows, nil
}

func searchRowFromAPI(r *searchconsole.ApiDataRow) (types.SearchDemandRow, bool) {
	if r == nil || len(r.Keys) < 3 {
		return types.SearchDemandRow{}, false
	}
	date, err := time.Parse(apiDateFormat, r.Keys[2])
	if err != nil {
		return types.SearchDemandRow{}, false
	}
	return types.SearchDemandRow{
		Query:       r.Keys[0],
		Page:        r.Keys[1],
		Impressions: r.Impressions,
		Clicks:      r.Clicks,
		CTR:         r.Ctr,
		Position:    r.Position,
		Date:        date,
	}, true
}
