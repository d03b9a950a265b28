package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/hubspot"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// newFlagCommand registers the persistent flags on a standalone command and parses args.
func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	globalOpts = globalFlags{}
	t.Cleanup(func() { globalOpts = globalFlags{} })

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&globalOpts.configPath, "config", "", "")
	cmd.Flags().IntVar(&globalOpts.daysBack, "days-back", 0, "")
	cmd.Flags().StringVar(&globalOpts.storeBackend, "store", "", "")
	cmd.Flags().StringVar(&globalOpts.databaseURL, "db-url", "", "")
	cmd.Flags().BoolVar(&globalOpts.stableIDs, "stable-ids", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig(newFlagCommand(t))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultDaysBack, cfg.DaysBack)
	assert.Equal(t, config.DefaultTopN, cfg.TopN)
	assert.Equal(t, config.BackendHubSpot, cfg.Backend())
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.StableIDs)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfigFile(t, `{"days_back": 10, "hubspot_app_id": "file-app", "top_n": 3}`)

	tests := []struct {
		name     string
		envDays  string
		args     []string
		expected int
	}{
		{name: "config file only", expected: 10},
		{name: "env overrides file", envDays: "20", expected: 20},
		{name: "flag overrides env", envDays: "20", args: []string{"--days-back", "5"}, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(config.EnvDaysBack, tt.envDays)
			t.Setenv(config.EnvHubSpotAppID, "env-app")

			cmd := newFlagCommand(t, append([]string{"--config", path}, tt.args...)...)
			cfg, err := loadConfig(cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.DaysBack)
			assert.Equal(t, "env-app", cfg.HubSpotAppID)
			assert.Equal(t, 3, cfg.TopN)
		})
	}
}

func TestLoadConfig_ThresholdPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `{
		"thresholds": {"min_impressions": 500, "min_conversions": 3, "min_score": 0.7},
		"weights": {"search": 0.6}
	}`)
	t.Setenv(config.EnvMinScore, "0.4")
	t.Setenv(config.EnvWeightAds, "0.1")

	cfg, err := loadConfig(newFlagCommand(t, "--config", path))
	require.NoError(t, err)

	sc, err := cfg.SynthesisConfig(timeNow())
	require.NoError(t, err)
	assert.Equal(t, types.Thresholds{MinImpressions: 500, MinConversions: 3, MinScore: 0.4}, sc.Thresholds)

	weights := types.DefaultWeights()
	weights.Search = 0.6
	weights.Ads = 0.1
	assert.Equal(t, weights, sc.Weights)
}

func TestLoadConfig_FlagsOverrideStore(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvStoreBackend, config.BackendHubSpot)

	cfg, err := loadConfig(newFlagCommand(t, "--store", "postgres", "--db-url", "postgres://localhost/agent", "--stable-ids"))
	require.NoError(t, err)
	assert.Equal(t, config.BackendPostgres, cfg.Backend())
	assert.Equal(t, "postgres://localhost/agent", cfg.DatabaseURL)
	assert.True(t, cfg.StableIDs)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("schema violation", func(t *testing.T) {
		clearEnv(t)
		path := writeConfigFile(t, `{"days_back": 0}`)
		_, err := loadConfig(newFlagCommand(t, "--config", path))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("invalid env number", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(config.EnvDaysBack, "thirty")
		_, err := loadConfig(newFlagCommand(t))
		var cfgErr *config.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, config.EnvDaysBack, cfgErr.Field)
	})

	t.Run("unknown store flag", func(t *testing.T) {
		clearEnv(t)
		_, err := loadConfig(newFlagCommand(t, "--store", "s3"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store_backend")
	})

	t.Run("negative weight from env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(config.EnvWeightAds, "-0.5")
		_, err := loadConfig(newFlagCommand(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "synthesis")
	})
}

func TestNewRuntime_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		missing string
	}{
		{name: "api key", cfg: config.Config{HubSpotPortalID: "123"}, missing: config.EnvHubSpotAPIKey},
		{name: "portal id", cfg: config.Config{HubSpotAPIKey: "key"}, missing: config.EnvHubSpotPortalID},
		{
			name:    "postgres without database",
			cfg:     config.Config{HubSpotAPIKey: "key", HubSpotPortalID: "123", StoreBackend: config.BackendPostgres},
			missing: config.EnvDatabaseURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := newRuntime(context.Background(), &tt.cfg, zap.NewNop())
			assert.Nil(t, rt)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing+" is required")
		})
	}
}

func TestNewRuntime_HubSpotStore(t *testing.T) {
	cfg := &config.Config{HubSpotAPIKey: "key", HubSpotPortalID: "123", HubSpotAppID: "agent-app"}

	rt, err := newRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	store, ok := rt.store.(*hubspot.MarketingEvents)
	require.True(t, ok)
	assert.Equal(t, "agent-app", store.AppID())
	assert.Nil(t, rt.database)

	agent, err := rt.newAgent(nil)
	require.NoError(t, err)
	assert.Nil(t, agent.Runs)
	assert.NotNil(t, agent.Engine)
}

func TestNewIngester_OptionalSources(t *testing.T) {
	client := hubspot.NewClient("key")

	in, err := newIngester(context.Background(), &config.Config{}, client, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, in.Lifecycle)
	assert.Nil(t, in.Analytics)
	assert.Nil(t, in.Search)
	assert.Nil(t, in.Ads)

	_, err = newIngester(context.Background(), &config.Config{GoogleAdsCustomerID: "123-456-7890"}, client, zap.NewNop())
	require.Error(t, err)
}

func TestGoogleOptions(t *testing.T) {
	assert.Empty(t, googleOptions(""))
	assert.Len(t, googleOptions(`{"type":"service_account"}`), 1)
}

func TestNewEngine_StableIDs(t *testing.T) {
	bundle := &types.SignalBundle{Ads: []types.AdsPerformanceRow{
		{CampaignName: "Spring Promo", Conversions: 25, Impressions: 1000},
	}}

	cfg := &config.Config{StableIDs: true}
	first, err := newEngine(cfg, timeNow(), zap.NewNop())
	require.NoError(t, err)
	second, err := newEngine(cfg, timeNow(), zap.NewNop())
	require.NoError(t, err)

	a := first.SynthesizeInsights(bundle)
	b := second.SynthesizeInsights(bundle)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].ID, b[0].ID)

	random, err := newEngine(&config.Config{}, timeNow(), zap.NewNop())
	require.NoError(t, err)
	c := random.SynthesizeInsights(bundle)
	require.Len(t, c, 1)
	assert.NotEqual(t, a[0].ID, c[0].ID)
}
