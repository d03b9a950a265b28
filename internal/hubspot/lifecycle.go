package hubspot

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const (
	contactsSearchPath   = "/crm/v3/objects/contacts/search"
	contactsBatchPath    = "/crm/v3/objects/contacts/batch/read"
	lifecycleProperty    = "lifecyclestage"
	lastModifiedProperty = "lastmodifieddate"
	searchPageSize       = 100
	batchReadSize        = 100
)

// LifecycleSource reads contact lifecycle-stage transitions from the CRM.
type LifecycleSource struct {
	client *Client
}

// NewLifecycleSource creates a lifecycle source on client.
func NewLifecycleSource(client *Client) *LifecycleSource {
	return &LifecycleSource{client: client}
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
	HighValue    string `json:"highValue,omitempty"`
}

type filterGroup struct {
	Filters []searchFilter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties []string `json:"properties"`
	Limit      int      `json:"limit"`
	After      string   `json:"after,omitempty"`
}

type searchResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
	Paging *struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

type batchReadRequest struct {
	Inputs                []batchInput `json:"inputs"`
	PropertiesWithHistory []string     `json:"propertiesWithHistory"`
}

type batchInput struct {
	ID string `json:"id"`
}

type propertyVersion struct {
	Value      string    `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
	SourceType string    `json:"sourceType"`
}

type batchReadResponse struct {
	Results []struct {
		ID                    string                       `json:"id"`
		PropertiesWithHistory map[string][]propertyVersion `json:"propertiesWithHistory"`
	} `json:"results"`
}

// FetchTransitions returns the stage changes of contacts modified in [start, end].
// A change is reported only when it happened inside the window and the contact
// had a previous stage; initial stage assignments are not transitions.
func (s *LifecycleSource) FetchTransitions(ctx context.Context, start, end time.Time) ([]types.LifecycleTransition, error) {
	ids, err := s.modifiedContacts(ctx, start, end)
	if err != nil {
		return nil, err
	}

	transitions := make([]types.LifecycleTransition, 0)
	for i := 0; i < len(ids); i += batchReadSize {
		j := i + batchReadSize
		if j > len(ids) {
			j = len(ids)
		}
		batch, err := s.stageHistory(ctx, ids[i:j], start, end)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, batch...)
	}

	s.client.log.Info("fetched lifecycle transitions",
		zap.Int("contacts", len(ids)),
		zap.Int("transitions", len(transitions)))
	return transitions, nil
}

func (s *LifecycleSource) modifiedContacts(ctx context.Context, start, end time.Time) ([]string, error) {
	req := searchRequest{
		FilterGroups: []filterGroup{{
			Filters: []searchFilter{{
				PropertyName: lastModifiedProperty,
				Operator:     "BETWEEN",
				Value:        strconv.FormatInt(start.UnixMilli(), 10),
				HighValue:    strconv.FormatInt(end.UnixMilli(), 10),
			}},
		}},
		Properties: []string{lifecycleProperty},
		Limit:      searchPageSize,
	}

	ids := make([]string, 0)
	for {
		var resp searchResponse
		if err := s.client.do(ctx, http.MethodPost, contactsSearchPath, nil, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to search contacts: %w", err)
		}
		for _, r := range resp.Results {
			ids = append(ids, r.ID)
		}
		if resp.Paging == nil || resp.Paging.Next == nil || resp.Paging.Next.After == "" {
			return ids, nil
		}
		req.After = resp.Paging.Next.After
	}
}

func (s *LifecycleSource) stageHistory(ctx context.Context, ids []string, start, end time.Time) ([]types.LifecycleTransition, error) {
	req := batchReadRequest{PropertiesWithHistory: []string{lifecycleProperty}}
	for _, id := range ids {
		req.Inputs = append(req.Inputs, batchInput{ID: id})
	}

	var resp batchReadResponse
	if err := s.client.do(ctx, http.MethodPost, contactsBatchPath, nil, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to read contact history: %w", err)
	}

	var transitions []types.LifecycleTransition
	for _, contact := range resp.Results {
		transitions = append(transitions, transitionsFromHistory(contact.ID, contact.PropertiesWithHistory[lifecycleProperty], start, end)...)
	}
	return transitions, nil
}

// transitionsFromHistory pairs consecutive stage values in chronological order.
func transitionsFromHistory(contactID string, history []propertyVersion, start, end time.Time) []types.LifecycleTransition {
	versions := make([]propertyVersion, 0, len(history))
	for _, v := range history {
		if v.Value != "" {
			versions = append(versions, v)
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Timestamp.Before(versions[j].Timestamp)
	})

	var transitions []types.LifecycleTransition
	for i := 1; i < len(versions); i++ {
		prev, cur := versions[i-1], versions[i]
		if prev.Value == cur.Value {
			continue
		}
		if cur.Timestamp.Before(start) || cur.Timestamp.After(end) {
			continue
		}
		transitions = append(transitions, types.LifecycleTransition{
			ContactID: contactID,
			FromStage: prev.Value,
			ToStage:   cur.Value,
			Timestamp: cur.Timestamp,
			Properties: map[string]any{
				"source_type": cur.SourceType,
			},
		})
	}
	return transitions
}
