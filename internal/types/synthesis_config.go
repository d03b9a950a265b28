package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DateRange is the inclusive window signals are fetched for.
type DateRange struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

// Thresholds gate which groups qualify as insights.
type Thresholds struct {
	MinImpressions float64 `json:"min_impressions" validate:"gte=0"`
	MinConversions float64 `json:"min_conversions" validate:"gte=0"`
	MinScore       float64 `json:"min_score" validate:"gte=0,lte=1"`
}

// Weights are the per-family weights of the composite score.
// They do not need to sum to 1; only the weights of present families are used.
type Weights struct {
	Analytics float64 `json:"ga4" validate:"gte=0"`
	Lifecycle float64 `json:"lifecycle" validate:"gte=0"`
	Search    float64 `json:"search" validate:"gte=0"`
	Ads       float64 `json:"ads" validate:"gte=0"`
}

// SynthesisConfig is supplied once per run and read-only for its duration.
type SynthesisConfig struct {
	DateRange  DateRange  `json:"date_range"`
	Thresholds Thresholds `json:"thresholds"`
	Weights    Weights    `json:"weights"`
}

// Default synthesis settings
const (
	DefaultDaysBack       = 30
	DefaultMinImpressions = 100
	DefaultMinConversions = 1
	DefaultMinScore       = 0.5
)

// DefaultWeights returns the default family weights.
func DefaultWeights() Weights {
	return Weights{
		Analytics: 0.25,
		Lifecycle: 0.35,
		Search:    0.20,
		Ads:       0.20,
	}
}

// DefaultSynthesisConfig returns the default configuration for a window ending at now.
func DefaultSynthesisConfig(now time.Time) SynthesisConfig {
	return SynthesisConfig{
		DateRange: DateRange{
			Start: now.AddDate(0, 0, -DefaultDaysBack),
			End:   now,
		},
		Thresholds: Thresholds{
			MinImpressions: DefaultMinImpressions,
			MinConversions: DefaultMinConversions,
			MinScore:       DefaultMinScore,
		},
		Weights: DefaultWeights(),
	}
}

// Validate validates the SynthesisConfig using the validator.
func (c *SynthesisConfig) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
