package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/observability"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the marketing events currently held by the event store",
	RunE:  runEvents,
}

var eventsJSON bool

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Print events as JSON")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
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

	agent, err := rt.newAgent(nil)
	if err != nil {
		return err
	}
	records, err := agent.GetCurrentEvents(ctx)
	if err != nil {
		return err
	}

	if eventsJSON {
		if err := encodeJSON(cmd.OutOrStdout(), records); err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}
		return nil
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintEvents(records)
	return nil
}
