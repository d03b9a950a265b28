// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ingestion"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintSignalCounts outputs how many records each source returned.
func (p *Printer) PrintSignalCounts(counts types.SignalCounts) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analytics events:  %d\n", counts.AnalyticsEvents))
	sb.WriteString(fmt.Sprintf("Conversions:       %d\n", counts.Conversions))
	sb.WriteString(fmt.Sprintf("Lifecycle changes: %d\n", counts.Lifecycle))
	sb.WriteString(fmt.Sprintf("Search rows:       %d\n", counts.Search))
	sb.WriteString(fmt.Sprintf("Ads rows:          %d", counts.Ads))
	p.printBox("INGESTED SIGNALS", sb.String())
}

// PrintInsights outputs the top n ranked insights with their scores and
// first recommendation. n <= 0 uses the default list length.
func (p *Printer) PrintInsights(insights []types.QualifiedInsight, n int) {
	if len(insights) == 0 {
		p.printBox("TOP INSIGHTS", "No insights met the qualification thresholds")
		return
	}
	if n <= 0 {
		n = maxItemsToShow
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Qualified insights: %d\n\n", len(insights)))

	count := min(len(insights), n)
	for i := 0; i < count; i++ {
		in := insights[i]
		sb.WriteString(fmt.Sprintf("#%d  [%s] %s\n", i+1, in.Type, in.Name))
		sb.WriteString(fmt.Sprintf("    Score: %.2f  Impressions: %.0f  Conversions: %.0f\n",
			in.Score, in.Metrics.TotalImpressions, in.Metrics.TotalConversions))
		if len(in.Recommendations) > 0 {
			sb.WriteString(fmt.Sprintf("    → %s\n", in.Recommendations[0]))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(insights) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more insights", len(insights)-count))
	}

	p.printBox("TOP INSIGHTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSyncResult outputs the outcome of a reconciliation.
func (p *Printer) PrintSyncResult(result *types.SyncResult) {
	if result == nil {
		return
	}
	content := fmt.Sprintf("Created: %d\nUpdated: %d\nDeleted: %d",
		len(result.Created), len(result.Updated), len(result.Deleted))
	p.printBox("EVENTS SYNCED", content)
}

// PrintBatchResult outputs a batch creation report including each failure.
func (p *Printer) PrintBatchResult(result *types.BatchCreateResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Created: %d\nFailed:  %d", len(result.Created), len(result.Failures)))
	for _, f := range result.Failures {
		sb.WriteString(fmt.Sprintf("\n\n⚠ %s\n  %s", f.Name, f.Error))
	}
	p.printBox("EVENTS SEEDED", sb.String())
}

// PrintEvents outputs the events currently held by the store.
func (p *Printer) PrintEvents(records []types.MarketingEventRecord) {
	if len(records) == 0 {
		p.printBox("MARKETING EVENTS", "No events found")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total events: %d\n", len(records)))
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("\n• %s\n  %s  id=%s", r.EventName, r.EventType, r.ID))
	}
	p.printBox("MARKETING EVENTS", sb.String())
}

// PrintTransitions outputs lifecycle transition counts.
func (p *Printer) PrintTransitions(counts []ingestion.TransitionCount) {
	if len(counts) == 0 {
		return
	}

	var sb strings.Builder
	for i, c := range counts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%-40s %5d", c.Journey.String(), c.Count))
	}
	p.printBox("LIFECYCLE TRANSITIONS", sb.String())
}

// PrintTopKeywords outputs the best converting ad keywords.
func (p *Printer) PrintTopKeywords(rows []types.AdsPerformanceRow) {
	if len(rows) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(rows), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := rows[i]
		sb.WriteString(fmt.Sprintf("• %s (%s)\n  %.1f conversions, cost %.2f", r.Keyword, r.CampaignName, r.Conversions, r.Cost))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(rows) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n\n... and %d more keywords", len(rows)-maxItemsToShow))
	}
	p.printBox("TOP KEYWORDS", sb.String())
}
