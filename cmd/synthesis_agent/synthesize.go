package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ingestion"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/observability"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Fetch signals and print ranked insights without touching the event store",
	Long: `Fetches every configured signal source (or replays a recorded bundle with --bundle),
synthesizes qualified insights and prints them. With --out the insights are written as JSON;
with --snapshot the fetched signal bundle is recorded for later replay.`,
	RunE: runSynthesize,
}

var (
	synthesizeBundle   string
	synthesizeOut      string
	synthesizeSnapshot string
)

// InsightsFile is the name of the insights JSON written to --out directories.
const InsightsFile = "insights.json"

func init() {
	synthesizeCmd.Flags().StringVar(&synthesizeBundle, "bundle", "", "Path to a recorded signals.json bundle to replay instead of fetching")
	synthesizeCmd.Flags().StringVarP(&synthesizeOut, "out", "o", "", "Output directory for insights.json")
	synthesizeCmd.Flags().StringVar(&synthesizeSnapshot, "snapshot", "", "Directory to record the fetched signal bundle in")
	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, _ []string) error {
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

	var source pipeline.SignalSource
	if synthesizeBundle != "" {
		bundle, err := ingestion.LoadBundle(synthesizeBundle)
		if err != nil {
			return err
		}
		source = ingestion.NewStaticIngester(bundle)
	} else {
		rt, err := newRuntime(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()
		source = rt.ingester
	}

	recorder := &recordingSource{inner: source}
	insights, err := synthesizeFrom(ctx, cfg, recorder, log, progressPrinter(cmd, globalOpts.verbose))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if synthesizeSnapshot != "" && recorder.bundle != nil {
		if err := writeBundleSnapshot(synthesizeSnapshot, recorder); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Signal snapshot written to %s\n", synthesizeSnapshot)
	}

	if synthesizeOut != "" {
		path, err := writeInsights(synthesizeOut, insights)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Wrote %d insights to %s\n", len(insights), path)
		return nil
	}

	printer := observability.NewPrinter(out)
	if recorder.bundle != nil {
		printer.PrintSignalCounts(recorder.bundle.Counts())
	}
	printer.PrintInsights(insights, cfg.TopN)
	return nil
}

// synthesizeFrom runs ingestion and synthesis against source for a window ending now.
func synthesizeFrom(ctx context.Context, cfg *config.Config, source pipeline.SignalSource, log *zap.Logger, onProgress pipeline.ProgressCallback) ([]types.QualifiedInsight, error) {
	engine, err := newEngine(cfg, timeNow(), log)
	if err != nil {
		return nil, err
	}
	agent := &pipeline.Agent{
		Ingester:   source,
		Engine:     engine,
		Logger:     log,
		OnProgress: onProgress,
	}
	return agent.SynthesizeOnly(ctx)
}

// recordingSource keeps the last bundle its inner source produced.
type recordingSource struct {
	inner     pipeline.SignalSource
	bundle    *types.SignalBundle
	dateRange types.DateRange
}

func (r *recordingSource) Ingest(ctx context.Context, dateRange types.DateRange) (*types.SignalBundle, error) {
	bundle, err := r.inner.Ingest(ctx, dateRange)
	if err != nil {
		return nil, err
	}
	r.bundle = bundle
	r.dateRange = dateRange
	return bundle, nil
}

// sources names the families present in the recorded bundle.
func (r *recordingSource) sources() []string {
	b := r.bundle
	names := []string{ingestion.SourceLifecycle}
	if b.AnalyticsEvents != nil {
		names = append(names, ingestion.SourceAnalyticsEvents)
	}
	if b.Conversions != nil {
		names = append(names, ingestion.SourceAnalyticsConversions)
	}
	if b.Search != nil {
		names = append(names, ingestion.SourceSearch)
	}
	if b.Ads != nil {
		names = append(names, ingestion.SourceAds)
	}
	return names
}

func writeBundleSnapshot(dir string, r *recordingSource) error {
	metadata, err := ingestion.NewMetadata(r.bundle, r.dateRange, r.sources())
	if err != nil {
		return err
	}
	return ingestion.WriteSnapshot(dir, r.bundle, metadata)
}

// writeInsights writes insights as indented JSON to dir/insights.json.
func writeInsights(dir string, insights []types.QualifiedInsight) (string, error) {
	path := filepath.Join(dir, InsightsFile)
	if err := writeJSONFile(path, insights); err != nil {
		return "", err
	}
	return path, nil
}

// writeJSONFile writes v as indented JSON to path, creating its directory.
func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := encodeJSON(f, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
