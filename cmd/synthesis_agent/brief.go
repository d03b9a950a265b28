package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/brief"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/llm"
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Write a narrative brief of the top insights with Gemini",
	Long: `Ranks the insights, asks the model for a headline, a summary and one next step per insight,
and prints the result as Markdown. Requires GEMINI_API_KEY.

Insights come from --insights, from a replayed --bundle, or from the live sources.`,
	RunE: runBrief,
}

var (
	briefInsights string
	briefBundle   string
	briefTop      int
	briefModel    string
	briefJSON     bool
)

func init() {
	briefCmd.Flags().StringVar(&briefInsights, "insights", "", "Path to an insights.json written by synthesize --out")
	briefCmd.Flags().StringVar(&briefBundle, "bundle", "", "Path to a recorded signals.json bundle to synthesize from")
	briefCmd.Flags().IntVar(&briefTop, "top", brief.DefaultTopN, "Number of top insights to describe")
	briefCmd.Flags().StringVar(&briefModel, "model", "", "Override the model used for the brief")
	briefCmd.Flags().BoolVar(&briefJSON, "json", false, "Print the brief as JSON")
	rootCmd.AddCommand(briefCmd)
}

func runBrief(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.GeminiAPIKey == "" {
		return llm.ErrMissingAPIKey
	}
	log, err := newLogger(cfg, globalOpts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	insights, err := obtainInsights(ctx, cfg, insightInput{InsightsPath: briefInsights, BundlePath: briefBundle}, log)
	if err != nil {
		return err
	}
	if len(insights) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No insights met the qualification thresholds; nothing to brief")
		return nil
	}

	llmConfig := llm.DefaultConfig()
	if briefModel != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, briefModel)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	sc, err := cfg.SynthesisConfig(timeNow())
	if err != nil {
		return err
	}
	b, err := brief.Generate(ctx, client, insights, brief.Options{
		TopN:      briefTop,
		DateRange: sc.DateRange,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	if briefJSON {
		return encodeJSON(cmd.OutOrStdout(), b)
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), b.Markdown())
	return nil
}
