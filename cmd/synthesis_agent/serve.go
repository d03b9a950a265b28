package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/server"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/server/ratelimit"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes run, synthesize and event endpoints.
Requests need a bearer token issued with the token command; JWT_SECRET is required.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	srvCfg := server.Config{
		Port: servePort,
		NewAgent: func(_ context.Context, onProgress pipeline.ProgressCallback) (server.Agent, error) {
			agent, err := rt.newAgent(onProgress)
			if err != nil {
				return nil, err
			}
			return agent, nil
		},
		JWT:     server.NewJWTService(jwtConfig),
		Limiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:  log,
	}
	if rt.database != nil {
		srvCfg.History = rt.database
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
