package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
)

// configEnv lists every variable the agent reads, so tests start from a clean slate.
var configEnv = []string{
	config.EnvHubSpotAPIKey, config.EnvHubSpotPortalID, config.EnvHubSpotAppID,
	config.EnvGA4PropertyID, config.EnvGA4Credentials, config.EnvGSCSiteURL, config.EnvGSCCredentials,
	config.EnvGoogleAdsCustomerID, config.EnvGoogleAdsCredentials, config.EnvGoogleAdsDeveloperToken,
	config.EnvDaysBack, config.EnvMinImpressions, config.EnvMinConversions, config.EnvMinScore,
	config.EnvWeightGA4, config.EnvWeightLifecycle, config.EnvWeightSearch, config.EnvWeightAds,
	config.EnvStoreBackend, config.EnvDatabaseURL, config.EnvServiceEnvironment, config.EnvGeminiAPIKey,
	config.EnvJWTSecret, config.EnvJWTExpirationHours,
}

// clearEnv blanks every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnv {
		t.Setenv(name, "")
	}
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns what it printed.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}
