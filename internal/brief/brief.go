package brief

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/llm"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/prompts"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ranking"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// DefaultTopN is the number of insights described when Options.TopN is unset.
const DefaultTopN = 5

// Action is a next step the model proposes for one insight.
type Action struct {
	InsightID string `json:"insight_id"`
	Action    string `json:"action"`
}

// Brief is the narrative generated for a set of insights.
type Brief struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Actions     []Action  `json:"actions"`
	InsightIDs  []string  `json:"insight_ids"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Options controls brief generation.
type Options struct {
	TopN      int
	DateRange types.DateRange
	Tier      llm.ModelTier
	Logger    *zap.Logger
}

// Generate ranks insights, describes the top N with client and validates the reply.
// Actions naming an insight outside the top N are dropped.
func Generate(ctx context.Context, client llm.Client, insights []types.QualifiedInsight, opts Options) (*Brief, error) {
	log := logger.OrNop(opts.Logger)
	if len(insights) == 0 {
		return nil, &ValidationError{Field: "insights", Message: "at least one insight is required"}
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	tier := opts.Tier
	if tier == "" {
		tier = llm.TierStandard
	}

	top := ranking.Top(ranking.RankInsights(insights), topN)
	prompt := buildPrompt(top, opts.DateRange)

	log.Debug("generating insight brief",
		zap.Int("insights", len(top)),
		zap.String("model", client.GetModel(tier)))

	text, err := client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate brief", Cause: err}
	}

	b, err := llm.DecodeJSON[Brief](text)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse brief", Cause: err}
	}
	if strings.TrimSpace(b.Headline) == "" {
		return nil, &ValidationError{Field: "headline", Message: "headline is required"}
	}
	if strings.TrimSpace(b.Summary) == "" {
		return nil, &ValidationError{Field: "summary", Message: "summary is required"}
	}

	known := make(map[string]bool, len(top))
	b.InsightIDs = make([]string, 0, len(top))
	for _, in := range top {
		known[in.ID] = true
		b.InsightIDs = append(b.InsightIDs, in.ID)
	}
	actions := make([]Action, 0, len(b.Actions))
	for _, a := range b.Actions {
		if !known[a.InsightID] || strings.TrimSpace(a.Action) == "" {
			log.Warn("dropping brief action for unknown insight", zap.String("insight_id", a.InsightID))
			continue
		}
		actions = append(actions, a)
	}
	b.Actions = actions
	b.Model = client.GetModel(tier)
	b.GeneratedAt = time.Now().UTC()

	return b, nil
}

// Markdown renders the brief for terminals and chat.
func (b *Brief) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n%s\n", b.Headline, b.Summary)
	if len(b.Actions) > 0 {
		sb.WriteString("\n## Next steps\n\n")
		for _, a := range b.Actions {
			fmt.Fprintf(&sb, "- %s (%s)\n", a.Action, a.InsightID)
		}
	}
	return sb.String()
}

func buildPrompt(insights []types.QualifiedInsight, dr types.DateRange) string {
	var sb strings.Builder
	for i, in := range insights {
		fmt.Fprintf(&sb, "%d. id=%s type=%s name=%q score=%.2f\n", i+1, in.ID, in.Type, in.Name, in.Score)
		m := in.Metrics
		fmt.Fprintf(&sb, "   impressions=%.0f clicks=%.0f conversions=%.0f", m.TotalImpressions, m.TotalClicks, m.TotalConversions)
		if m.AvgPosition != nil {
			fmt.Fprintf(&sb, " avg_position=%.1f", *m.AvgPosition)
		}
		if m.TotalCost != nil {
			fmt.Fprintf(&sb, " cost=%.2f", *m.TotalCost)
		}
		if m.ROI != nil {
			fmt.Fprintf(&sb, " roi=%.2f", *m.ROI)
		}
		sb.WriteString("\n")
		if len(in.Recommendations) > 0 {
			fmt.Fprintf(&sb, "   recommendations: %s\n", strings.Join(in.Recommendations, "; "))
		}
	}

	period := "the recent period"
	if !dr.Start.IsZero() && !dr.End.IsZero() {
		period = dr.Start.Format(time.DateOnly) + " to " + dr.End.Format(time.DateOnly)
	}

	return prompts.Format(prompts.MustGet("brief.json", "insight-brief"), map[string]string{
		"Period":   period,
		"Insights": strings.TrimRight(sb.String(), "\n"),
	})
}
