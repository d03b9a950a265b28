// Package synthesis turns an ingested signal bundle into ranked, qualified insights.
package synthesis

import (
	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ranking"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// Engine synthesizes insights under a fixed SynthesisConfig.
// An Engine holds no per-run state and may be reused across runs.
type Engine struct {
	config types.SynthesisConfig
	newID  IDGenerator
	log    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how insight ids are assigned.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithLogger sets the logger used for per-type debug output.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = logger.OrNop(log)
	}
}

// NewEngine creates an Engine. Insight ids default to random UUIDs.
func NewEngine(config types.SynthesisConfig, opts ...Option) *Engine {
	e := &Engine{
		config: config,
		newID:  RandomIDs(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() types.SynthesisConfig {
	return e.config
}

// SynthesizeInsights groups, gates, scores and ranks every family in the bundle.
// The result is never nil; an empty or nil bundle yields an empty slice.
func (e *Engine) SynthesizeInsights(bundle *types.SignalBundle) []types.QualifiedInsight {
	insights := make([]types.QualifiedInsight, 0)
	if bundle == nil {
		return insights
	}

	if len(bundle.Search) > 0 {
		insights = append(insights, e.queryInsights(bundle.Search, bundle.Conversions)...)
		insights = append(insights, e.pageInsights(bundle.Search, bundle.AnalyticsEvents)...)
	}

	if len(bundle.Lifecycle) > 0 {
		insights = append(insights, e.journeyInsights(bundle.Lifecycle)...)
	}

	if len(bundle.Ads) > 0 {
		insights = append(insights, e.messageInsights(bundle.Ads)...)
	}

	ranked := ranking.RankInsights(insights)
	e.log.Debug("synthesized insights",
		zap.Int("qualified", len(ranked)),
		zap.Float64("min_score", e.config.Thresholds.MinScore))
	return ranked
}

// accept applies the score gate and builds the insight when it passes.
func (e *Engine) accept(insightType types.InsightType, name string, signals ranking.FamilySignals) (float64, bool) {
	score := ranking.CompositeScore(signals, e.config.Weights)
	if score < e.config.Thresholds.MinScore {
		e.log.Debug("group rejected by score",
			zap.String("type", string(insightType)),
			zap.String("name", name),
			zap.Float64("score", score))
		return score, false
	}
	return score, true
}
