package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// Snapshot file names written by WriteSnapshot.
const (
	SnapshotFile     = "signals.json"
	SnapshotMetaFile = "signals.meta.json"
)

// LoadBundle reads a signal bundle previously written by WriteSnapshot.
func LoadBundle(path string) (*types.SignalBundle, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var bundle types.SignalBundle
	if err := json.Unmarshal(content, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse signal bundle %s: %w", path, err)
	}
	return &bundle, nil
}

// WriteSnapshot writes the bundle and its metadata to outDir.
func WriteSnapshot(outDir string, bundle *types.SignalBundle, metadata *Metadata) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	bundleJSON, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, SnapshotFile), bundleJSON, 0644); err != nil {
		return fmt.Errorf("failed to write bundle file: %w", err)
	}

	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, SnapshotMetaFile), metaJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// StaticSource replays a recorded bundle. It satisfies every fetcher interface
// and returns the recorded rows regardless of the requested range.
type StaticSource struct {
	Bundle *types.SignalBundle
}

// FetchEvents returns the recorded analytics events.
func (s *StaticSource) FetchEvents(context.Context, time.Time, time.Time) ([]types.AnalyticsEvent, error) {
	return s.Bundle.AnalyticsEvents, nil
}

// FetchConversions returns the recorded conversions.
func (s *StaticSource) FetchConversions(context.Context, time.Time, time.Time) ([]types.AnalyticsConversion, error) {
	return s.Bundle.Conversions, nil
}

// FetchTransitions returns the recorded lifecycle transitions.
func (s *StaticSource) FetchTransitions(context.Context, time.Time, time.Time) ([]types.LifecycleTransition, error) {
	return s.Bundle.Lifecycle, nil
}

// FetchSearchDemand returns the recorded search rows.
func (s *StaticSource) FetchSearchDemand(context.Context, time.Time, time.Time) ([]types.SearchDemandRow, error) {
	return s.Bundle.Search, nil
}

// FetchAdsPerformance returns the recorded ads rows.
func (s *StaticSource) FetchAdsPerformance(context.Context, time.Time, time.Time) ([]types.AdsPerformanceRow, error) {
	return s.Bundle.Ads, nil
}

// NewStaticIngester builds an Ingester that replays bundle for every family.
func NewStaticIngester(bundle *types.SignalBundle) *Ingester {
	src := &StaticSource{Bundle: bundle}
	return &Ingester{Analytics: src, Lifecycle: src, Search: src, Ads: src}
}
