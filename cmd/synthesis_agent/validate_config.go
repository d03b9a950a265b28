package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config <config.json>",
	Short: "Validate a config file against the schema and the synthesis rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateConfig,
}

var validateIntegration bool

func init() {
	validateConfigCmd.Flags().BoolVar(&validateIntegration, "integration", false, "Also require the HubSpot credentials from the environment")
	rootCmd.AddCommand(validateConfigCmd)
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if validateIntegration {
		envCfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		merged := envCfg.MergeWithDefaults(*cfg)
		if err := merged.ValidateIntegration(); err != nil {
			return err
		}
	}

	sc, err := cfg.SynthesisConfig(time.Now())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "✓ %s is valid\n", args[0])
	_, _ = fmt.Fprintf(out, "  Window:     %s to %s\n", sc.DateRange.Start.Format(time.DateOnly), sc.DateRange.End.Format(time.DateOnly))
	_, _ = fmt.Fprintf(out, "  Thresholds: impressions >= %.0f, conversions >= %.0f, score >= %.2f\n",
		sc.Thresholds.MinImpressions, sc.Thresholds.MinConversions, sc.Thresholds.MinScore)
	_, _ = fmt.Fprintf(out, "  Weights:    ga4 %.2f, lifecycle %.2f, search %.2f, ads %.2f\n",
		sc.Weights.Analytics, sc.Weights.Lifecycle, sc.Weights.Search, sc.Weights.Ads)
	_, _ = fmt.Fprintf(out, "  Store:      %s\n", cfg.Backend())
	return nil
}
