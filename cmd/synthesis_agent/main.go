// Package main provides the entry point for the demand-to-event synthesis agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "synthesis_agent",
	Short: "Demand-to-Event Synthesis Agent",
	Long: `Synthesis agent turns demand signals from analytics, CRM lifecycle, organic search and paid ads
into ranked insights and keeps one HubSpot marketing event per qualified insight.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "", "Path to config.json file (values can be overridden by env vars and flags)")
	rootCmd.PersistentFlags().IntVar(&globalOpts.daysBack, "days-back", 0, "Days of history to fetch (defaults to DAYS_BACK or 30)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.storeBackend, "store", "", "Event store backend: hubspot or postgres (defaults to STORE_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.stableIDs, "stable-ids", false, "Derive insight ids from type and name so reruns update events in place")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false, "Print detailed progress and the top insights")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
