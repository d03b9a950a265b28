package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ingestion"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/observability"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize raw signals: transitions, top keywords, search winners and ads ROI",
	Long: `Fetches the signals (or replays --bundle) and prints descriptive statistics without
synthesizing insights.`,
	RunE: runAnalyze,
}

var (
	analyzeBundle          string
	analyzeMinCTR          float64
	analyzeMinConversions  float64
	analyzeConversionValue float64
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeBundle, "bundle", "", "Path to a recorded signals.json bundle to analyze instead of fetching")
	analyzeCmd.Flags().Float64Var(&analyzeMinCTR, "min-ctr", 0.02, "CTR floor for high-performing search queries")
	analyzeCmd.Flags().Float64Var(&analyzeMinConversions, "min-conversions", 1, "Conversion floor for top ad keywords")
	analyzeCmd.Flags().Float64Var(&analyzeConversionValue, "conversion-value", 100, "Value of one ad conversion used for ROI")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, globalOpts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sc, err := cfg.SynthesisConfig(timeNow())
	if err != nil {
		return err
	}

	var bundle *types.SignalBundle
	if analyzeBundle != "" {
		bundle, err = ingestion.LoadBundle(analyzeBundle)
		if err != nil {
			return err
		}
	} else {
		rt, err := newRuntime(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()
		bundle, err = rt.ingester.Ingest(ctx, sc.DateRange)
		if err != nil {
			return err
		}
	}

	printAnalysis(cmd.OutOrStdout(), bundle, analysisOptions{
		MinImpressions:  sc.Thresholds.MinImpressions,
		MinCTR:          analyzeMinCTR,
		MinConversions:  analyzeMinConversions,
		ConversionValue: analyzeConversionValue,
	})
	return nil
}

type analysisOptions struct {
	MinImpressions  float64
	MinCTR          float64
	MinConversions  float64
	ConversionValue float64
}

// printAnalysis prints the descriptive statistics of bundle.
func printAnalysis(out io.Writer, bundle *types.SignalBundle, opts analysisOptions) {
	printer := observability.NewPrinter(out)
	printer.PrintSignalCounts(bundle.Counts())
	printer.PrintTransitions(ingestion.TransitionCounts(bundle.Lifecycle))
	printer.PrintTopKeywords(ingestion.TopKeywords(bundle.Ads, opts.MinConversions))

	if bundle.Search != nil {
		winners := ingestion.HighPerformingQueries(bundle.Search, opts.MinImpressions, opts.MinCTR)
		_, _ = fmt.Fprintf(out, "High-performing search rows: %d of %d\n", len(winners), len(bundle.Search))
	}
	if bundle.Ads != nil {
		_, _ = fmt.Fprintf(out, "Ads ROI at %.2f per conversion: %.2f\n", opts.ConversionValue, ingestion.CampaignROI(bundle.Ads, opts.ConversionValue))
	}
	if bundle.AnalyticsEvents != nil {
		patterns := ingestion.EventPatterns(bundle.AnalyticsEvents)
		_, _ = fmt.Fprintf(out, "Event patterns: %d\n", len(patterns))
		for i, p := range patterns {
			if i == 5 {
				_, _ = fmt.Fprintf(out, "  ... and %d more\n", len(patterns)-i)
				break
			}
			_, _ = fmt.Fprintf(out, "  %-50s %5d\n", p.Key.Key(), len(p.Rows))
		}
	}
}
