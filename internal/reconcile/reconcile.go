package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// Reconciler applies insights to an EventStore.
type Reconciler struct {
	store EventStore
	log   *zap.Logger
}

// New creates a Reconciler for store.
func New(store EventStore, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, log: logger.OrNop(log)}
}

// Sync lists the store, plans the difference and applies it one call at a time.
// The first failing call stops the run and is returned as a *SyncError.
// Cancellation of ctx is observed between calls.
func (r *Reconciler) Sync(ctx context.Context, desired []types.QualifiedInsight) (*types.SyncResult, error) {
	existing, err := r.store.List(ctx)
	if err != nil {
		return nil, &SyncError{Op: "list", Applied: types.NewSyncResult(), Err: err}
	}

	plan := Diff(desired, existing)
	creates, updates, deletes := plan.Counts()
	r.log.Info("reconciling marketing events",
		zap.Int("existing", len(existing)),
		zap.Int("desired", len(desired)),
		zap.Int("creates", creates),
		zap.Int("updates", updates),
		zap.Int("deletes", deletes))

	result := types.NewSyncResult()
	for _, action := range plan.Upserts {
		if err := ctx.Err(); err != nil {
			return nil, &SyncError{Op: string(action.Kind), Key: action.Insight.ID, Applied: result, Err: err}
		}

		switch action.Kind {
		case ActionUpdate:
			if err := r.store.Update(ctx, action.Identifier, action.Insight); err != nil {
				return nil, &SyncError{Op: "update", Key: action.Insight.ID, Applied: result, Err: err}
			}
			result.Updated = append(result.Updated, action.Identifier)
		case ActionCreate:
			id, err := r.store.Create(ctx, action.Insight)
			if err != nil {
				return nil, &SyncError{Op: "create", Key: action.Insight.ID, Applied: result, Err: err}
			}
			result.Created = append(result.Created, id)
		}
	}

	for _, id := range plan.Deletes {
		if err := ctx.Err(); err != nil {
			return nil, &SyncError{Op: "delete", Key: id, Applied: result, Err: err}
		}
		if err := r.store.Delete(ctx, id); err != nil {
			return nil, &SyncError{Op: "delete", Key: id, Applied: result, Err: err}
		}
		result.Deleted = append(result.Deleted, id)
	}

	r.log.Info("marketing events synced",
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("deleted", len(result.Deleted)))
	return result, nil
}

// BatchCreate creates an event for every insight without consulting the listing.
// Unlike Sync it keeps going after a failed create and reports each failure in the result.
// A cancelled context stops the loop; the remaining insights are reported as failures.
func (r *Reconciler) BatchCreate(ctx context.Context, insights []types.QualifiedInsight) *types.BatchCreateResult {
	result := &types.BatchCreateResult{Created: make([]string, 0, len(insights))}

	for _, insight := range insights {
		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, types.BatchFailure{
				InsightID: insight.ID,
				Name:      insight.Name,
				Error:     err.Error(),
			})
			continue
		}

		id, err := r.store.Create(ctx, insight)
		if err != nil {
			r.log.Warn("failed to create marketing event",
				zap.String("insight_id", insight.ID),
				zap.String("name", insight.Name),
				zap.Error(err))
			result.Failures = append(result.Failures, types.BatchFailure{
				InsightID: insight.ID,
				Name:      insight.Name,
				Error:     err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, id)
	}

	r.log.Info("batch create finished",
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failures)))
	return result
}
