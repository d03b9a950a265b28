package ranking

import (
	"sort"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// RankInsights returns a new slice of insights sorted by score, highest first.
// Insights with equal scores keep their relative input order.
func RankInsights(insights []types.QualifiedInsight) []types.QualifiedInsight {
	ranked := make([]types.QualifiedInsight, len(insights))
	copy(ranked, insights)

	// Sort by score (descending)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// Top returns at most n insights from the head of an already ranked slice.
func Top(ranked []types.QualifiedInsight, n int) []types.QualifiedInsight {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
