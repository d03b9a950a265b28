package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const (
	// DefaultGoogleAdsEndpoint is the Google Ads REST API root including the version.
	DefaultGoogleAdsEndpoint = "https://googleads.googleapis.com/v17"
	googleAdsScope           = "https://www.googleapis.com/auth/adwords"
)

// keywordPerformanceQuery selects keyword-level daily performance.
const keywordPerformanceQuery = `SELECT campaign.id, campaign.name, ad_group.id, ad_group.name,
  ad_group_criterion.keyword.text, metrics.impressions, metrics.clicks,
  metrics.conversions, metrics.cost_micros, segments.date
FROM keyword_view
WHERE segments.date BETWEEN '%s' AND '%s'`

// GoogleAdsSource reads keyword performance through the Google Ads REST API.
type GoogleAdsSource struct {
	endpoint       string
	customerID     string
	developerToken string
	httpClient     *http.Client
	log            *zap.Logger
}

// GoogleAdsOptions configures a GoogleAdsSource.
type GoogleAdsOptions struct {
	CustomerID     string
	DeveloperToken string
	// CredentialsJSON is a service account or authorized user credentials file.
	// Application default credentials are used when it is empty.
	CredentialsJSON []byte
	// Endpoint overrides DefaultGoogleAdsEndpoint.
	Endpoint string
	// HTTPClient, when set, is used as is and CredentialsJSON is ignored.
	HTTPClient *http.Client
}

// NewGoogleAdsSource creates an ads source authenticated with OAuth2.
func NewGoogleAdsSource(ctx context.Context, opts GoogleAdsOptions, log *zap.Logger) (*GoogleAdsSource, error) {
	if opts.CustomerID == "" {
		return nil, fmt.Errorf("google ads customer id is required")
	}
	if opts.DeveloperToken == "" {
		return nil, fmt.Errorf("google ads developer token is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		var creds *google.Credentials
		var err error
		if len(opts.CredentialsJSON) > 0 {
			creds, err = google.CredentialsFromJSON(ctx, opts.CredentialsJSON, googleAdsScope)
		} else {
			creds, err = google.FindDefaultCredentials(ctx, googleAdsScope)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load google ads credentials: %w", err)
		}
		httpClient = oauth2.NewClient(ctx, creds.TokenSource)
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultGoogleAdsEndpoint
	}

	return &GoogleAdsSource{
		endpoint:       strings.TrimRight(endpoint, "/"),
		customerID:     strings.ReplaceAll(opts.CustomerID, "-", ""),
		developerToken: opts.DeveloperToken,
		httpClient:     httpClient,
		log:            logger.OrNop(log),
	}, nil
}

type adsSearchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type adsSearchResponse struct {
	Results       []adsRow `json:"results"`
	NextPageToken string   `json:"nextPageToken"`
}

// adsRow mirrors a GoogleAdsRow. int64 fields are JSON strings in the REST API.
type adsRow struct {
	Campaign struct {
		ID   int64  `json:"id,string"`
		Name string `json:"name"`
	} `json:"campaign"`
	AdGroup struct {
		ID   int64  `json:"id,string"`
		Name string `json:"name"`
	} `json:"adGroup"`
	AdGroupCriterion struct {
		Keyword struct {
			Text string `json:"text"`
		} `json:"keyword"`
	} `json:"adGroupCriterion"`
	Metrics struct {
		Impressions int64   `json:"impressions,string"`
		Clicks      int64   `json:"clicks,string"`
		Conversions float64 `json:"conversions"`
		CostMicros  int64   `json:"costMicros,string"`
	} `json:"metrics"`
	Segments struct {
		Date string `json:"date"`
	} `json:"segments"`
}

// FetchAdsPerformance returns keyword-level daily performance rows for the range.
func (s *GoogleAdsSource) FetchAdsPerformance(ctx context.Context, start, end time.Time) ([]types.AdsPerformanceRow, error) {
	req := adsSearchRequest{
		Query: fmt.Sprintf(keywordPerformanceQuery, start.Format(apiDateFormat), end.Format(apiDateFormat)),
	}

	rows := make([]types.AdsPerformanceRow, 0)
	for {
		resp, err := s.search(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			row, err := adsRowToPerformance(r)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}

	s.log.Info("fetched google ads rows",
		zap.String("customer", s.customerID),
		zap.Int("rows", len(rows)))
	return rows, nil
}

func (s *GoogleAdsSource) search(ctx context.Context, body adsSearchRequest) (*adsSearchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode google ads query: %w", err)
	}

	url := fmt.Sprintf("%s/customers/%s/googleAds:search", s.endpoint, s.customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create google ads request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", s.developerToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google ads search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read google ads response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google ads search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out adsSearchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode google ads response: %w", err)
	}
	return &out, nil
}

func adsRowToPerformance(r adsRow) (types.AdsPerformanceRow, error) {
	date, err := time.Parse(apiDateFormat, r.Segments.Date)
	if err != nil {
		return types.AdsPerformanceRow{}, fmt.Errorf("google ads row for campaign %q has invalid date %q: %w", r.Campaign.Name, r.Segments.Date, err)
	}
	return types.AdsPerformanceRow{
		CampaignID:   fmt.Sprint(r.Campaign.ID),
		CampaignName: r.Campaign.Name,
		AdGroupID:    fmt.Sprint(r.AdGroup.ID),
		AdGroupName:  r.AdGroup.Name,
		Keyword:      r.AdGroupCriterion.Keyword.Text,
		Impressions:  float64(r.Metrics.Impressions),
		Clicks:       float64(r.Metrics.Clicks),
		Conversions:  r.Metrics.Conversions,
		Cost:         float64(r.Metrics.CostMicros) / 1e6,
		Date:         date,
	}, nil
}
