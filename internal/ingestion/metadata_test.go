package ingestion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

func TestNewMetadata(t *testing.T) {
	bundle := &types.SignalBundle{Search: []types.SearchDemandRow{{Query: "crm", Clicks: 3}}}
	dr := types.DateRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	metadata, err := NewMetadata(bundle, dr, []string{SourceSearch})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T00:00:00Z", metadata.Start)
	assert.Equal(t, "2024-03-31T00:00:00Z", metadata.End)
	assert.Len(t, metadata.Hash, 64)
	assert.Equal(t, 1, metadata.Counts.Search)

	_, err = time.Parse(time.RFC3339, metadata.Timestamp)
	assert.NoError(t, err)

	// different content should produce a different hash
	other, err := NewMetadata(&types.SignalBundle{Search: []types.SearchDemandRow{{Query: "cms"}}}, dr, nil)
	require.NoError(t, err)
	assert.NotEqual(t, metadata.Hash, other.Hash)
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, computeHash([]byte("same")), computeHash([]byte("same")))
	assert.NotEqual(t, computeHash([]byte("a")), computeHash([]byte("b")))
}

func TestWriteSnapshotAndLoadBundle(t *testing.T) {
	dir := t.TempDir()
	bundle := &types.SignalBundle{
		Lifecycle: []types.LifecycleTransition{{ContactID: "1", FromStage: "lead", ToStage: "customer"}},
		Ads:       []types.AdsPerformanceRow{{CampaignName: "brand", Cost: 12.5}},
	}
	metadata, err := NewMetadata(bundle, types.DateRange{Start: time.Now().AddDate(0, 0, -1), End: time.Now()}, nil)
	require.NoError(t, err)

	require.NoError(t, WriteSnapshot(dir, bundle, metadata))

	loaded, err := LoadBundle(filepath.Join(dir, SnapshotFile))
	require.NoError(t, err)
	assert.Equal(t, bundle.Lifecycle[0].ContactID, loaded.Lifecycle[0].ContactID)
	assert.Equal(t, 12.5, loaded.Ads[0].Cost)

	metaBytes, err := os.ReadFile(filepath.Join(dir, SnapshotMetaFile))
	require.NoError(t, err)
	var decoded Metadata
	require.NoError(t, json.Unmarshal(metaBytes, &decoded))
	assert.Equal(t, metadata.Hash, decoded.Hash)
}

func TestLoadBundle_Errors(t *testing.T) {
	_, err := LoadBundle(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadBundle(path)
	assert.Error(t, err)
}
