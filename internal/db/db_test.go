package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/hubspot"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/reconcile"
)

var _ reconcile.EventStore = (*EventDirectory)(nil)

func TestNewEventDirectory_DefaultMapper(t *testing.T) {
	dir := NewEventDirectory(&DB{}, nil)
	assert.Equal(t, hubspot.DefaultAppID, dir.AppID())

	dir = NewEventDirectory(&DB{}, hubspot.NewPayloadMapper("custom-app"))
	assert.Equal(t, "custom-app", dir.AppID())
}

func TestEventDirectory_RejectsMalformedIDs(t *testing.T) {
	dir := NewEventDirectory(&DB{}, nil)

	err := dir.Delete(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid marketing event id")
}

func TestEncodeProperties(t *testing.T) {
	b, err := encodeProperties(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	b, err = encodeProperties(map[string]string{"insightType": "query"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"insightType":"query"}`, string(b))
}

func TestRunType(t *testing.T) {
	run := Run{Status: RunStatusRunning}
	assert.Equal(t, "running", run.Status)
	assert.Nil(t, run.CompletedAt)
	assert.Nil(t, run.ErrorMessage)
}

func TestClose_NilPool(t *testing.T) {
	assert.NotPanics(t, func() { (&DB{}).Close() })
}
