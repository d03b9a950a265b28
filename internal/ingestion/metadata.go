package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// Metadata describes an ingested signal snapshot.
type Metadata struct {
	Start     string             `json:"start"`     // RFC3339 format
	End       string             `json:"end"`       // RFC3339 format
	Timestamp string             `json:"timestamp"` // RFC3339 format
	Hash      string             `json:"hash"`      // SHA256 hex digest of the bundle JSON
	Sources   []string           `json:"sources,omitempty"`
	Counts    types.SignalCounts `json:"counts"`
}

// NewMetadata creates Metadata for bundle with the current timestamp.
func NewMetadata(bundle *types.SignalBundle, dateRange types.DateRange, sources []string) (*Metadata, error) {
	content, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bundle: %w", err)
	}
	return &Metadata{
		Start:     dateRange.Start.UTC().Format(time.RFC3339),
		End:       dateRange.End.UTC().Format(time.RFC3339),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Sources:   sources,
		Counts:    bundle.Counts(),
	}, nil
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
