package synthesis

import (
	"github.com/google/uuid"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// IDGenerator assigns the id of a newly qualified insight.
type IDGenerator func(insightType types.InsightType, name string) string

// RandomIDs issues a fresh random UUID for every insight. Each run therefore
// produces new external keys and reconciliation replaces the previous run's events.
func RandomIDs() IDGenerator {
	return func(types.InsightType, string) string {
		return uuid.NewString()
	}
}

// StableIDs derives a name-based UUID from the insight type and name, so the same
// group yields the same id across runs and reconciles to an update.
func StableIDs(namespace uuid.UUID) IDGenerator {
	return func(insightType types.InsightType, name string) string {
		return uuid.NewSHA1(namespace, []byte(string(insightType)+"|"+name)).String()
	}
}

// DefaultNamespace is the namespace used for stable ids when none is configured.
var DefaultNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://closespark.io/demand-synthesis-agent"))
