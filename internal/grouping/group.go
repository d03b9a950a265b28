// Package grouping partitions signal records by a key and aggregates their metrics.
package grouping

import (
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// Group is one partition produced by GroupBy.
type Group[K comparable, T any] struct {
	Key  K
	Rows []T
}

// GroupBy partitions rows by key. Rows keep their input order inside a group
// and groups are returned in the order their key first appeared.
func GroupBy[T any, K comparable](rows []T, key func(T) K) []Group[K, T] {
	index := make(map[K]int)
	groups := make([]Group[K, T], 0)
	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// Journey identifies a lifecycle transition by its exact stage pair.
type Journey struct {
	From string
	To   string
}

// String renders the journey the way it is named on insights.
func (j Journey) String() string {
	return j.From + " → " + j.To
}

// ByQuery keys search rows by query text. Case and whitespace are significant.
func ByQuery(r types.SearchDemandRow) string { return r.Query }

// ByPage keys search rows by landing page.
func ByPage(r types.SearchDemandRow) string { return r.Page }

// ByJourney keys transitions by (from, to).
func ByJourney(t types.LifecycleTransition) Journey {
	return Journey{From: t.FromStage, To: t.ToStage}
}

// ByCampaign keys ads rows by campaign name.
func ByCampaign(r types.AdsPerformanceRow) string { return r.CampaignName }
