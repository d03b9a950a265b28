package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/observability"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full synthesis pipeline end-to-end",
	Long: `Fetches every configured signal source, synthesizes qualified insights and reconciles
the marketing-event store so it holds exactly one event per insight.

Configuration can be loaded from a JSON file using --config. Environment variables and
command-line flags override config file values.`,
	RunE: runPipelineCmd,
}

func init() {
	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
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

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	agent, err := rt.newAgent(progressPrinter(cmd, globalOpts.verbose))
	if err != nil {
		return err
	}

	result, err := agent.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printRunResult(cmd.OutOrStdout(), result, cfg.TopN, globalOpts.verbose)
	return nil
}

// printRunResult prints the totals and top insights of a run.
func printRunResult(out io.Writer, result *pipeline.RunResult, topN int, verbose bool) {
	if result.RunID != "" {
		_, _ = fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
	}
	_, _ = fmt.Fprintf(out, "Total insights: %d\n", len(result.Insights))
	_, _ = fmt.Fprintf(out, "Events created: %d, updated: %d, deleted: %d\n",
		len(result.EventsSynced.Created), len(result.EventsSynced.Updated), len(result.EventsSynced.Deleted))

	printer := observability.NewPrinter(out)
	printer.PrintInsights(result.Insights, topN)
	if verbose {
		printer.PrintSyncResult(result.EventsSynced)
	}
}
