package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/observability"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create one marketing event per synthesized insight without reconciling",
	Long: `Synthesizes insights and creates an event for each one. Existing events are left alone and
individual creation failures are reported instead of aborting the batch.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
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
	result, err := agent.SeedEvents(ctx)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintBatchResult(result)
	return nil
}
