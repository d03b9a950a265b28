package reconcile

import (
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// ActionKind distinguishes the two upsert operations.
type ActionKind string

// Action kinds
const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
)

// Action is one planned upsert. Identifier is set only for updates.
type Action struct {
	Kind       ActionKind
	Insight    types.QualifiedInsight
	Identifier string
}

// Plan is the full set of store calls needed to converge on the desired insights.
type Plan struct {
	// Upserts follow the order of the desired insights.
	Upserts []Action
	// Deletes are directory identifiers in listing order.
	Deletes []string
}

// Counts returns the number of creates, updates and deletes in the plan.
func (p Plan) Counts() (creates, updates, deletes int) {
	for _, a := range p.Upserts {
		if a.Kind == ActionCreate {
			creates++
		} else {
			updates++
		}
	}
	return creates, updates, len(p.Deletes)
}

// Diff compares desired insights against the existing listing without calling the store.
//
// When several records share an external key, the last one listed is the one
// matched; the earlier ones are left untouched.
func Diff(desired []types.QualifiedInsight, existing []types.MarketingEventRecord) Plan {
	lookup := make(map[string]string, len(existing))
	for _, rec := range existing {
		lookup[rec.ExternalEventID] = rec.ID
	}

	wanted := make(map[string]struct{}, len(desired))
	for _, insight := range desired {
		wanted[insight.ID] = struct{}{}
	}

	plan := Plan{
		Upserts: make([]Action, 0, len(desired)),
		Deletes: make([]string, 0),
	}

	for _, insight := range desired {
		if id, ok := lookup[insight.ID]; ok {
			plan.Upserts = append(plan.Upserts, Action{Kind: ActionUpdate, Insight: insight, Identifier: id})
		} else {
			plan.Upserts = append(plan.Upserts, Action{Kind: ActionCreate, Insight: insight})
		}
	}

	seen := make(map[string]struct{}, len(lookup))
	for _, rec := range existing {
		key := rec.ExternalEventID
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}
		if _, keep := wanted[key]; keep {
			continue
		}
		plan.Deletes = append(plan.Deletes, lookup[key])
	}

	return plan
}
