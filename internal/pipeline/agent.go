// Package pipeline provides the high-level orchestration of a synthesis run:
// ingest every source, synthesize ranked insights and reconcile the event store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/db"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/reconcile"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/synthesis"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// SignalSource produces the signal bundle for a date range.
type SignalSource interface {
	Ingest(ctx context.Context, dateRange types.DateRange) (*types.SignalBundle, error)
}

// RunRecorder persists a record of each run. *db.DB satisfies it.
type RunRecorder interface {
	CreateRun(ctx context.Context, start, end time.Time) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, outcome db.RunOutcome) error
	FailRun(ctx context.Context, runID uuid.UUID, message string) error
}

// ErrNoStore is returned by operations that need an event store when none is configured.
var ErrNoStore = errors.New("event store is not configured")

// Agent wires ingestion, synthesis and reconciliation together.
// Ingester and Engine are required; Store is required for Run, GetCurrentEvents
// and SeedEvents; Runs is optional.
type Agent struct {
	Ingester   SignalSource
	Engine     *synthesis.Engine
	Store      reconcile.EventStore
	Runs       RunRecorder
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// RunResult is the outcome of a full run.
type RunResult struct {
	RunID        string                   `json:"run_id,omitempty"`
	Insights     []types.QualifiedInsight `json:"insights"`
	EventsSynced *types.SyncResult        `json:"events_synced"`
}

// Run fetches all sources, synthesizes insights and reconciles the store.
// Any failure aborts the run; the store may be partially updated when the
// failure happens during reconciliation.
func (a *Agent) Run(ctx context.Context) (*RunResult, error) {
	if a.Store == nil {
		return nil, ErrNoStore
	}
	log := logger.OrNop(a.Logger)
	dateRange := a.Engine.Config().DateRange
	runID := a.startRun(ctx, dateRange)
	id := runIDString(runID)

	insights, err := a.synthesize(ctx, runID, dateRange)
	if err != nil {
		a.failRun(ctx, runID, err)
		return nil, err
	}

	a.emit(id, StepReconcile, fmt.Sprintf("Reconciling %d insights with the event store", len(insights)), nil)
	synced, err := reconcile.New(a.Store, log).Sync(ctx, insights)
	if err != nil {
		a.failRun(ctx, runID, err)
		return nil, fmt.Errorf("event sync failed: %w", err)
	}
	a.emit(id, StepReconcile, fmt.Sprintf("Created %d, updated %d, deleted %d events",
		len(synced.Created), len(synced.Updated), len(synced.Deleted)), synced)

	result := &RunResult{RunID: id, Insights: insights, EventsSynced: synced}
	if runID != uuid.Nil {
		if err := a.Runs.CompleteRun(ctx, runID, db.RunOutcome{
			Insights: len(insights),
			Created:  len(synced.Created),
			Updated:  len(synced.Updated),
			Deleted:  len(synced.Deleted),
		}); err != nil {
			log.Warn("failed to record run completion", zap.Error(err))
		}
	}

	log.Info("run complete",
		zap.Int("insights", len(insights)),
		zap.Int("created", len(synced.Created)),
		zap.Int("updated", len(synced.Updated)),
		zap.Int("deleted", len(synced.Deleted)))
	a.emit(result.RunID, StepComplete, "Run complete", result)
	return result, nil
}

// SynthesizeOnly fetches all sources and returns the ranked insights without
// touching the store.
func (a *Agent) SynthesizeOnly(ctx context.Context) ([]types.QualifiedInsight, error) {
	insights, err := a.synthesize(ctx, uuid.Nil, a.Engine.Config().DateRange)
	if err != nil {
		return nil, err
	}
	a.emit("", StepComplete, "Synthesis complete", insights)
	return insights, nil
}

// GetCurrentEvents lists the events currently held by the store.
func (a *Agent) GetCurrentEvents(ctx context.Context) ([]types.MarketingEventRecord, error) {
	if a.Store == nil {
		return nil, ErrNoStore
	}
	records, err := a.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	a.emit("", StepList, fmt.Sprintf("Store holds %d events", len(records)), nil)
	return records, nil
}

// SeedEvents synthesizes insights and creates an event for each one without
// reconciling. Individual creation failures are reported, not returned.
func (a *Agent) SeedEvents(ctx context.Context) (*types.BatchCreateResult, error) {
	if a.Store == nil {
		return nil, ErrNoStore
	}
	insights, err := a.SynthesizeOnly(ctx)
	if err != nil {
		return nil, err
	}
	result := reconcile.New(a.Store, a.Logger).BatchCreate(ctx, insights)
	a.emit("", StepSeed, fmt.Sprintf("Created %d events, %d failed", len(result.Created), len(result.Failures)), result)
	return result, nil
}

func (a *Agent) synthesize(ctx context.Context, runID uuid.UUID, dateRange types.DateRange) ([]types.QualifiedInsight, error) {
	id := runIDString(runID)
	a.emit(id, StepIngest, fmt.Sprintf("Fetching signals from %s to %s",
		dateRange.Start.Format(time.DateOnly), dateRange.End.Format(time.DateOnly)), nil)
	bundle, err := a.Ingester.Ingest(ctx, dateRange)
	if err != nil {
		return nil, fmt.Errorf("signal ingestion failed: %w", err)
	}
	a.emit(id, StepIngest, "Fetched signals", bundle.Counts())

	insights := a.Engine.SynthesizeInsights(bundle)
	a.emit(id, StepSynthesize, fmt.Sprintf("Synthesized %d qualified insights", len(insights)), insights)
	return insights, nil
}

// runIDString is empty when no run was recorded.
func runIDString(runID uuid.UUID) string {
	if runID == uuid.Nil {
		return ""
	}
	return runID.String()
}

func (a *Agent) startRun(ctx context.Context, dateRange types.DateRange) uuid.UUID {
	if a.Runs == nil {
		return uuid.Nil
	}
	id, err := a.Runs.CreateRun(ctx, dateRange.Start, dateRange.End)
	if err != nil {
		logger.OrNop(a.Logger).Warn("failed to record run, continuing without run history", zap.Error(err))
		return uuid.Nil
	}
	return id
}

func (a *Agent) failRun(ctx context.Context, runID uuid.UUID, cause error) {
	if runID == uuid.Nil {
		return
	}
	if err := a.Runs.FailRun(ctx, runID, cause.Error()); err != nil {
		logger.OrNop(a.Logger).Warn("failed to record run failure", zap.Error(err))
	}
}
