package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ingestion"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// insightInput says where a command that consumes insights reads them from.
// At most one of InsightsPath and BundlePath should be set; with neither the
// live sources are fetched.
type insightInput struct {
	InsightsPath string
	BundlePath   string
}

// readInsights loads an insights.json written by the synthesize command.
func readInsights(path string) ([]types.QualifiedInsight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read insights file %s: %w", path, err)
	}
	var insights []types.QualifiedInsight
	if err := json.Unmarshal(data, &insights); err != nil {
		return nil, fmt.Errorf("failed to parse insights file %s: %w", path, err)
	}
	return insights, nil
}

// obtainInsights returns recorded insights, or synthesizes them from a bundle or the live sources.
func obtainInsights(ctx context.Context, cfg *config.Config, in insightInput, log *zap.Logger) ([]types.QualifiedInsight, error) {
	switch {
	case in.InsightsPath != "" && in.BundlePath != "":
		return nil, fmt.Errorf("--insights and --bundle are mutually exclusive; provide only one")
	case in.InsightsPath != "":
		return readInsights(in.InsightsPath)
	case in.BundlePath != "":
		bundle, err := ingestion.LoadBundle(in.BundlePath)
		if err != nil {
			return nil, err
		}
		return synthesizeFrom(ctx, cfg, ingestion.NewStaticIngester(bundle), log, nil)
	}

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return synthesizeFrom(ctx, cfg, rt.ingester, log, nil)
}
