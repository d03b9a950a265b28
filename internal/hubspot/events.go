package hubspot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const marketingEventsPath = "/marketing/v3/marketing-events"

// listPageSize is the page size requested when listing events.
const listPageSize = 100

// MarketingEvents is the HubSpot marketing-events directory scoped to one app.
type MarketingEvents struct {
	client *Client
	appID  string
	mapper *PayloadMapper
}

// NewMarketingEvents creates the directory for appID. An empty appID uses DefaultAppID.
func NewMarketingEvents(client *Client, appID string) *MarketingEvents {
	mapper := NewPayloadMapper(appID)
	return &MarketingEvents{client: client, appID: mapper.AppID, mapper: mapper}
}

// WithMapper replaces the payload mapper, e.g. to pin the clock.
func (m *MarketingEvents) WithMapper(mapper *PayloadMapper) *MarketingEvents {
	m.mapper = mapper
	return m
}

// AppID returns the organizer namespace of this directory.
func (m *MarketingEvents) AppID() string {
	return m.appID
}

type listResponse struct {
	Results []types.MarketingEventRecord `json:"results"`
	Paging  *struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

type createResponse struct {
	ID string `json:"id"`
}

// List returns every event organized by this app, following pagination to the end.
// Events that carry a different organizer belong to other owners and are skipped
// so that reconciliation never deletes them.
func (m *MarketingEvents) List(ctx context.Context) ([]types.MarketingEventRecord, error) {
	records := make([]types.MarketingEventRecord, 0)
	after := ""
	pages := 0

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(listPageSize))
		if after != "" {
			query.Set("after", after)
		}

		var page listResponse
		if err := m.client.do(ctx, http.MethodGet, marketingEventsPath+"/events", query, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list marketing events: %w", err)
		}
		pages++

		for _, rec := range page.Results {
			if rec.EventOrganizer != "" && rec.EventOrganizer != m.appID {
				continue
			}
			records = append(records, rec)
		}

		if page.Paging == nil || page.Paging.Next == nil || page.Paging.Next.After == "" {
			break
		}
		after = page.Paging.Next.After
	}

	m.client.log.Debug("listed marketing events",
		zap.Int("records", len(records)),
		zap.Int("pages", pages))
	return records, nil
}

// Create posts a new event for insight and returns the HubSpot event id.
func (m *MarketingEvents) Create(ctx context.Context, insight types.QualifiedInsight) (string, error) {
	var resp createResponse
	if err := m.client.do(ctx, http.MethodPost, marketingEventsPath+"/events", nil, m.mapper.ToEvent(insight), &resp); err != nil {
		return "", fmt.Errorf("failed to create marketing event for insight %s: %w", insight.ID, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create marketing event for insight %s: response has no id", insight.ID)
	}

	m.client.log.Info("created marketing event",
		zap.String("event_id", resp.ID),
		zap.String("insight", insight.Name))
	return resp.ID, nil
}

// Update overwrites event id with the payload of insight.
func (m *MarketingEvents) Update(ctx context.Context, id string, insight types.QualifiedInsight) error {
	if err := m.client.do(ctx, http.MethodPatch, m.eventPath(id), nil, m.mapper.ToEvent(insight), nil); err != nil {
		return fmt.Errorf("failed to update marketing event %s: %w", id, err)
	}
	m.client.log.Info("updated marketing event", zap.String("event_id", id))
	return nil
}

// Delete removes event id.
func (m *MarketingEvents) Delete(ctx context.Context, id string) error {
	if err := m.client.do(ctx, http.MethodDelete, m.eventPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete marketing event %s: %w", id, err)
	}
	m.client.log.Info("deleted marketing event", zap.String("event_id", id))
	return nil
}

func (m *MarketingEvents) eventPath(id string) string {
	return fmt.Sprintf("%s/events/%s/%s", marketingEventsPath, url.PathEscape(m.appID), url.PathEscape(id))
}
