package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/db"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/hubspot"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ingestion"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/reconcile"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/synthesis"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath   string
	daysBack     int
	storeBackend string
	databaseURL  string
	stableIDs    bool
	verbose      bool
}

var globalOpts globalFlags

// timeNow is the clock synthesis windows end at.
var timeNow = time.Now

// defaultConfig fills whatever the config file, environment and flags leave unset.
func defaultConfig() config.Config {
	return config.Config{
		DaysBack:     types.DefaultDaysBack,
		TopN:         config.DefaultTopN,
		StoreBackend: config.BackendHubSpot,
		Environment:  "development",
	}
}

// loadConfig resolves the configuration. Precedence is flags, then environment,
// then the config file, then defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var fileCfg config.Config
	if globalOpts.configPath != "" {
		loaded, err := config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return nil, err
		}
		fileCfg = *loaded
	}

	envCfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	// Only override if the flag was explicitly set
	var flagCfg config.Config
	flags := cmd.Flags()
	if flags.Changed("days-back") {
		flagCfg.DaysBack = globalOpts.daysBack
	}
	if flags.Changed("store") {
		flagCfg.StoreBackend = globalOpts.storeBackend
	}
	if flags.Changed("db-url") {
		flagCfg.DatabaseURL = globalOpts.databaseURL
	}
	if flags.Changed("stable-ids") {
		flagCfg.StableIDs = globalOpts.stableIDs
	}

	merged := flagCfg.MergeWithDefaults(*envCfg)
	merged = merged.MergeWithDefaults(fileCfg)
	merged = merged.MergeWithDefaults(defaultConfig())

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// newLogger builds the command logger. Without --verbose only warnings and
// errors reach the console so they do not interleave with the printed report.
func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	log, err := logger.New(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if !verbose {
		log = log.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}
	return log, nil
}

// agentRuntime holds the long-lived dependencies an Agent is built from.
type agentRuntime struct {
	cfg      *config.Config
	log      *zap.Logger
	ingester pipeline.SignalSource
	store    reconcile.EventStore
	database *db.DB
}

// newRuntime validates the integration settings and connects every configured
// source and the event store. Call Close when done.
func newRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*agentRuntime, error) {
	if err := cfg.ValidateIntegration(); err != nil {
		return nil, err
	}

	client := hubspot.NewClient(cfg.HubSpotAPIKey, hubspot.WithLogger(log))
	ingester, err := newIngester(ctx, cfg, client, log)
	if err != nil {
		return nil, err
	}

	rt := &agentRuntime{cfg: cfg, log: log, ingester: ingester}
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		rt.database = database
	}

	switch cfg.Backend() {
	case config.BackendPostgres:
		rt.store = db.NewEventDirectory(rt.database, hubspot.NewPayloadMapper(cfg.HubSpotAppID))
	default:
		rt.store = hubspot.NewMarketingEvents(client, cfg.HubSpotAppID)
	}
	return rt, nil
}

// newIngester wires the lifecycle source plus each optional source whose
// identifier is configured.
func newIngester(ctx context.Context, cfg *config.Config, client *hubspot.Client, log *zap.Logger) (*ingestion.Ingester, error) {
	in := &ingestion.Ingester{
		Lifecycle: hubspot.NewLifecycleSource(client),
		Logger:    log,
	}

	if cfg.GA4PropertyID != "" {
		src, err := ingestion.NewGA4Source(ctx, cfg.GA4PropertyID, log, googleOptions(cfg.GA4Credentials)...)
		if err != nil {
			return nil, err
		}
		in.Analytics = src
	}
	if cfg.GSCSiteURL != "" {
		src, err := ingestion.NewSearchConsoleSource(ctx, cfg.GSCSiteURL, log, googleOptions(cfg.GSCCredentials)...)
		if err != nil {
			return nil, err
		}
		in.Search = src
	}
	if cfg.GoogleAdsCustomerID != "" {
		src, err := ingestion.NewGoogleAdsSource(ctx, ingestion.GoogleAdsOptions{
			CustomerID:      cfg.GoogleAdsCustomerID,
			DeveloperToken:  cfg.GoogleAdsDeveloperToken,
			CredentialsJSON: []byte(cfg.GoogleAdsCredentials),
		}, log)
		if err != nil {
			return nil, err
		}
		in.Ads = src
	}
	return in, nil
}

// googleOptions authenticates with inline credentials, falling back to
// application default credentials when none are set.
func googleOptions(credentials string) []option.ClientOption {
	if credentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsJSON([]byte(credentials))}
}

// newEngine builds a synthesis engine for a window ending at now.
func newEngine(cfg *config.Config, now time.Time, log *zap.Logger) (*synthesis.Engine, error) {
	sc, err := cfg.SynthesisConfig(now)
	if err != nil {
		return nil, err
	}
	opts := []synthesis.Option{synthesis.WithLogger(log)}
	if cfg.StableIDs {
		opts = append(opts, synthesis.WithIDGenerator(synthesis.StableIDs(synthesis.DefaultNamespace)))
	}
	return synthesis.NewEngine(sc, opts...), nil
}

// newAgent builds an agent whose date range ends now.
func (rt *agentRuntime) newAgent(onProgress pipeline.ProgressCallback) (*pipeline.Agent, error) {
	engine, err := newEngine(rt.cfg, timeNow(), rt.log)
	if err != nil {
		return nil, err
	}
	agent := &pipeline.Agent{
		Ingester:   rt.ingester,
		Engine:     engine,
		Store:      rt.store,
		Logger:     rt.log,
		OnProgress: onProgress,
	}
	if rt.database != nil {
		agent.Runs = rt.database
	}
	return agent, nil
}

// Close releases the database pool, if any.
func (rt *agentRuntime) Close() {
	if rt.database != nil {
		rt.database.Close()
	}
}

// commandContext returns the command context, which is unset when a command
// runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// progressPrinter logs progress events to out when verbose is set.
func progressPrinter(cmd *cobra.Command, verbose bool) pipeline.ProgressCallback {
	if !verbose {
		return nil
	}
	out := cmd.ErrOrStderr()
	return func(event pipeline.ProgressEvent) {
		_, _ = fmt.Fprintf(out, "[%s] %s\n", event.Step, event.Message)
	}
}
