package config

import (
	"os"
	"strconv"
)

// Environment variable names
const (
	EnvHubSpotAPIKey           = "HUBSPOT_API_KEY"
	EnvHubSpotPortalID         = "HUBSPOT_PORTAL_ID"
	EnvHubSpotAppID            = "HUBSPOT_APP_ID"
	EnvGA4PropertyID           = "GA4_PROPERTY_ID"
	EnvGA4Credentials          = "GA4_CREDENTIALS"
	EnvGSCSiteURL              = "GSC_SITE_URL"
	EnvGSCCredentials          = "GSC_CREDENTIALS"
	EnvGoogleAdsCustomerID     = "GOOGLE_ADS_CUSTOMER_ID"
	EnvGoogleAdsCredentials    = "GOOGLE_ADS_CREDENTIALS"
	EnvGoogleAdsDeveloperToken = "GOOGLE_ADS_DEVELOPER_TOKEN"
	EnvDaysBack                = "DAYS_BACK"
	EnvMinImpressions          = "MIN_IMPRESSIONS"
	EnvMinConversions          = "MIN_CONVERSIONS"
	EnvMinScore                = "MIN_SCORE"
	EnvWeightGA4               = "WEIGHT_GA4"
	EnvWeightLifecycle         = "WEIGHT_LIFECYCLE"
	EnvWeightSearch            = "WEIGHT_SEARCH"
	EnvWeightAds               = "WEIGHT_ADS"
	EnvStoreBackend            = "STORE_BACKEND"
	EnvDatabaseURL             = "DATABASE_URL"
	EnvServiceEnvironment      = "SERVICE_ENVIRONMENT"
	EnvGeminiAPIKey            = "GEMINI_API_KEY"
)

// FromEnv reads the configuration from environment variables. Only the
// threshold and weight variables that are set end up in their blocks; a block
// stays nil when none of its variables is set.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HubSpotAPIKey:           os.Getenv(EnvHubSpotAPIKey),
		HubSpotPortalID:         os.Getenv(EnvHubSpotPortalID),
		HubSpotAppID:            os.Getenv(EnvHubSpotAppID),
		GA4PropertyID:           os.Getenv(EnvGA4PropertyID),
		GA4Credentials:          os.Getenv(EnvGA4Credentials),
		GSCSiteURL:              os.Getenv(EnvGSCSiteURL),
		GSCCredentials:          os.Getenv(EnvGSCCredentials),
		GoogleAdsCustomerID:     os.Getenv(EnvGoogleAdsCustomerID),
		GoogleAdsCredentials:    os.Getenv(EnvGoogleAdsCredentials),
		GoogleAdsDeveloperToken: os.Getenv(EnvGoogleAdsDeveloperToken),
		StoreBackend:            os.Getenv(EnvStoreBackend),
		DatabaseURL:             os.Getenv(EnvDatabaseURL),
		Environment:             os.Getenv(EnvServiceEnvironment),
		GeminiAPIKey:            os.Getenv(EnvGeminiAPIKey),
	}

	if v := os.Getenv(EnvDaysBack); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ConfigError{Field: EnvDaysBack, Message: "must be an integer: " + err.Error()}
		}
		cfg.DaysBack = n
	}

	var thresholds ThresholdSettings
	var weights WeightSettings
	err := floatsFromEnv(map[string]**float64{
		EnvMinImpressions:  &thresholds.MinImpressions,
		EnvMinConversions:  &thresholds.MinConversions,
		EnvMinScore:        &thresholds.MinScore,
		EnvWeightGA4:       &weights.Analytics,
		EnvWeightLifecycle: &weights.Lifecycle,
		EnvWeightSearch:    &weights.Search,
		EnvWeightAds:       &weights.Ads,
	})
	if err != nil {
		return nil, err
	}
	if !thresholds.isZero() {
		cfg.Thresholds = &thresholds
	}
	if !weights.isZero() {
		cfg.Weights = &weights
	}

	return cfg, nil
}

// floatsFromEnv parses each set variable into its target. Unset variables
// leave their target nil.
func floatsFromEnv(targets map[string]**float64) error {
	for name, dst := range targets {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ConfigError{Field: name, Message: "must be a number: " + err.Error()}
		}
		*dst = &f
	}
	return nil
}
