package reconcile

import (
	"fmt"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// SyncError reports the store call that aborted a reconciliation.
// Changes listed in Applied were already made and are not rolled back.
type SyncError struct {
	Op      string
	Key     string
	Applied *types.SyncResult
	Err     error
}

func (e *SyncError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("sync %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sync %s %s failed: %v", e.Op, e.Key, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
