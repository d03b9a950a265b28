// Package reconcile converges an external marketing-event directory onto the
// set of currently qualified insights.
package reconcile

import (
	"context"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// EventStore is the external directory of marketing events.
// Records are keyed by ExternalEventID, which always equals the insight id.
type EventStore interface {
	// List returns a complete snapshot of the records owned by this agent.
	List(ctx context.Context) ([]types.MarketingEventRecord, error)
	// Create stores a new event for insight and returns its directory identifier.
	Create(ctx context.Context, insight types.QualifiedInsight) (string, error)
	// Update overwrites the event stored under id with the contents of insight.
	Update(ctx context.Context, id string, insight types.QualifiedInsight) error
	// Delete removes the event stored under id.
	Delete(ctx context.Context, id string) error
}
