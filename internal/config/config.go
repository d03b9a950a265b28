// Package config provides configuration loading and validation for the agent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/schemas"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
	schemafiles "github.com/closespark/hubspot-demand-to-event-synthesis-agent/schemas"
)

// Store backends
const (
	BackendHubSpot  = "hubspot"
	BackendPostgres = "postgres"
)

// DefaultTopN is how many insights the CLI prints after a run.
const DefaultTopN = 5

// Config is the agent configuration. Non-secret fields may come from a JSON
// config file; secrets and credentials are only read from the environment.
type Config struct {
	// HubSpot
	HubSpotAPIKey   string `json:"-"`
	HubSpotPortalID string `json:"hubspot_portal_id,omitempty"`
	HubSpotAppID    string `json:"hubspot_app_id,omitempty"`

	// Optional sources. Credentials are inline JSON documents.
	GA4PropertyID           string `json:"ga4_property_id,omitempty"`
	GA4Credentials          string `json:"-"`
	GSCSiteURL              string `json:"gsc_site_url,omitempty"`
	GSCCredentials          string `json:"-"`
	GoogleAdsCustomerID     string `json:"google_ads_customer_id,omitempty"`
	GoogleAdsCredentials    string `json:"-"`
	GoogleAdsDeveloperToken string `json:"-"`

	// Synthesis
	DaysBack   int               `json:"days_back,omitempty"`
	Thresholds *ThresholdSettings `json:"thresholds,omitempty"`
	Weights    *WeightSettings    `json:"weights,omitempty"`
	StableIDs  bool               `json:"stable_ids,omitempty"`
	TopN       int                `json:"top_n,omitempty"`

	// Storage and runtime
	StoreBackend string `json:"store_backend,omitempty"`
	DatabaseURL  string `json:"database_url,omitempty"`
	Environment  string `json:"environment,omitempty"`
	GeminiAPIKey string `json:"-"`
}

// LoadConfig loads configuration from a JSON file, validating it against the
// embedded config schema first.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := schemas.ValidateBytes(schemafiles.SynthesisConfig, data); err != nil {
		return nil, fmt.Errorf("config file %s does not match schema: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. It does not check
// credentials; see ValidateIntegration.
func (c *Config) Validate() error {
	if c.DaysBack < 0 {
		return &ConfigError{Field: "days_back", Message: "must be non-negative"}
	}
	if c.TopN < 0 {
		return &ConfigError{Field: "top_n", Message: "must be non-negative"}
	}
	switch c.StoreBackend {
	case "", BackendHubSpot, BackendPostgres:
	default:
		return &ConfigError{Field: "store_backend", Message: fmt.Sprintf("must be %q or %q, got %q", BackendHubSpot, BackendPostgres, c.StoreBackend)}
	}
	_, err := c.SynthesisConfig(time.Now())
	return err
}

// ValidateIntegration checks the settings required to talk to the event store.
// It runs before any network call.
func (c *Config) ValidateIntegration() error {
	if c.HubSpotAPIKey == "" {
		return missing(EnvHubSpotAPIKey)
	}
	if c.HubSpotPortalID == "" {
		return missing(EnvHubSpotPortalID)
	}
	if c.Backend() == BackendPostgres && c.DatabaseURL == "" {
		return missing(EnvDatabaseURL)
	}
	if c.GoogleAdsCustomerID != "" && c.GoogleAdsDeveloperToken == "" {
		return missing(EnvGoogleAdsDeveloperToken)
	}
	return nil
}

// Backend returns the configured store backend, defaulting to HubSpot.
func (c *Config) Backend() string {
	if c.StoreBackend == "" {
		return BackendHubSpot
	}
	return c.StoreBackend
}

// SynthesisConfig builds and validates the synthesis settings for a window ending at now.
func (c *Config) SynthesisConfig(now time.Time) (types.SynthesisConfig, error) {
	sc := types.DefaultSynthesisConfig(now)
	if c.DaysBack > 0 {
		sc.DateRange.Start = now.AddDate(0, 0, -c.DaysBack)
	}
	c.Thresholds.applyTo(&sc.Thresholds)
	c.Weights.applyTo(&sc.Weights)
	if err := sc.Validate(); err != nil {
		return types.SynthesisConfig{}, &ConfigError{Field: "synthesis", Message: err.Error()}
	}
	return sc, nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// Values already set on c win.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.HubSpotAPIKey, defaults.HubSpotAPIKey)
	mergeString(&result.HubSpotPortalID, defaults.HubSpotPortalID)
	mergeString(&result.HubSpotAppID, defaults.HubSpotAppID)
	mergeString(&result.GA4PropertyID, defaults.GA4PropertyID)
	mergeString(&result.GA4Credentials, defaults.GA4Credentials)
	mergeString(&result.GSCSiteURL, defaults.GSCSiteURL)
	mergeString(&result.GSCCredentials, defaults.GSCCredentials)
	mergeString(&result.GoogleAdsCustomerID, defaults.GoogleAdsCustomerID)
	mergeString(&result.GoogleAdsCredentials, defaults.GoogleAdsCredentials)
	mergeString(&result.GoogleAdsDeveloperToken, defaults.GoogleAdsDeveloperToken)
	mergeString(&result.StoreBackend, defaults.StoreBackend)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.Environment, defaults.Environment)
	mergeString(&result.GeminiAPIKey, defaults.GeminiAPIKey)

	if result.DaysBack == 0 {
		result.DaysBack = defaults.DaysBack
	}
	if result.TopN == 0 {
		result.TopN = defaults.TopN
	}
	result.Thresholds = mergeThresholds(result.Thresholds, defaults.Thresholds)
	result.Weights = mergeWeights(result.Weights, defaults.Weights)

	// Bools cannot distinguish unset from false, so either side enables them
	result.StableIDs = result.StableIDs || defaults.StableIDs

	return result
}

func mergeString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
