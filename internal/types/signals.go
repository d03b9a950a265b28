// Package types provides type definitions for the signal records and insights used throughout the synthesis agent.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// AnalyticsEvent is a single behavioral event reported by the analytics source.
type AnalyticsEvent struct {
	EventName   string         `json:"event_name"`
	Timestamp   time.Time      `json:"timestamp"`
	UserID      string         `json:"user_id,omitempty"`
	SessionID   string         `json:"session_id"`
	Page        string         `json:"page"`
	EventParams map[string]any `json:"event_params,omitempty"`
}

// AnalyticsConversion is a conversion (key event) reported by the analytics source.
type AnalyticsConversion struct {
	ConversionName string    `json:"conversion_name"`
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id,omitempty"`
	Value          *float64  `json:"value,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	Source         string    `json:"source"`
	Medium         string    `json:"medium"`
	Campaign       string    `json:"campaign,omitempty"`
}

// LifecycleTransition records a CRM contact moving from one lifecycle stage to another.
type LifecycleTransition struct {
	ContactID  string         `json:"contact_id"`
	FromStage  string         `json:"from_stage"`
	ToStage    string         `json:"to_stage"`
	Timestamp  time.Time      `json:"timestamp"`
	Properties map[string]any `json:"properties,omitempty"`
}

// SearchDemandRow is one row of search-console performance data.
type SearchDemandRow struct {
	Query       string    `json:"query"`
	Page        string    `json:"page"`
	Impressions float64   `json:"impressions"`
	Clicks      float64   `json:"clicks"`
	CTR         float64   `json:"ctr"`
	Position    float64   `json:"position"`
	Date        time.Time `json:"date"`
}

// AdsPerformanceRow is one row of paid-ads performance data at keyword granularity.
type AdsPerformanceRow struct {
	CampaignID   string    `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	AdGroupID    string    `json:"ad_group_id"`
	AdGroupName  string    `json:"ad_group_name"`
	Keyword      string    `json:"keyword"`
	Impressions  float64   `json:"impressions"`
	Clicks       float64   `json:"clicks"`
	Conversions  float64   `json:"conversions"`
	Cost         float64   `json:"cost"`
	Date         time.Time `json:"date"`
}

// SignalBundle holds everything ingested for one run, one field per source family.
// A family that was not configured is left nil; synthesis treats nil and empty alike.
type SignalBundle struct {
	AnalyticsEvents []AnalyticsEvent      `json:"analytics_events,omitempty"`
	Conversions     []AnalyticsConversion `json:"conversions,omitempty"`
	Lifecycle       []LifecycleTransition `json:"lifecycle,omitempty"`
	Search          []SearchDemandRow     `json:"search,omitempty"`
	Ads             []AdsPerformanceRow   `json:"ads,omitempty"`
}

// SignalCounts summarizes the size of each family in a bundle.
type SignalCounts struct {
	AnalyticsEvents int `json:"analytics_events"`
	Conversions     int `json:"conversions"`
	Lifecycle       int `json:"lifecycle"`
	Search          int `json:"search"`
	Ads             int `json:"ads"`
}

// Counts returns the number of records held for each family.
func (b *SignalBundle) Counts() SignalCounts {
	if b == nil {
		return SignalCounts{}
	}
	return SignalCounts{
		AnalyticsEvents: len(b.AnalyticsEvents),
		Conversions:     len(b.Conversions),
		Lifecycle:       len(b.Lifecycle),
		Search:          len(b.Search),
		Ads:             len(b.Ads),
	}
}

// IsEmpty reports whether no family carries any record.
func (b *SignalBundle) IsEmpty() bool {
	return b.Counts() == SignalCounts{}
}
