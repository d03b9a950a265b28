package config

import "github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"

// ThresholdSettings holds the thresholds one configuration source sets.
// Nil fields are left to the next source and finally to the defaults.
type ThresholdSettings struct {
	MinImpressions *float64 `json:"min_impressions,omitempty"`
	MinConversions *float64 `json:"min_conversions,omitempty"`
	MinScore       *float64 `json:"min_score,omitempty"`
}

// WeightSettings holds the family weights one configuration source sets.
type WeightSettings struct {
	Analytics *float64 `json:"ga4,omitempty"`
	Lifecycle *float64 `json:"lifecycle,omitempty"`
	Search    *float64 `json:"search,omitempty"`
	Ads       *float64 `json:"ads,omitempty"`
}

func (s *ThresholdSettings) isZero() bool {
	return s == nil || (s.MinImpressions == nil && s.MinConversions == nil && s.MinScore == nil)
}

func (s *WeightSettings) isZero() bool {
	return s == nil || (s.Analytics == nil && s.Lifecycle == nil && s.Search == nil && s.Ads == nil)
}

// mergeThresholds returns a new block with each field taken from s when set,
// otherwise from fallback.
func mergeThresholds(s, fallback *ThresholdSettings) *ThresholdSettings {
	if s.isZero() && fallback.isZero() {
		return nil
	}
	var a, b ThresholdSettings
	if s != nil {
		a = *s
	}
	if fallback != nil {
		b = *fallback
	}
	return &ThresholdSettings{
		MinImpressions: firstSet(a.MinImpressions, b.MinImpressions),
		MinConversions: firstSet(a.MinConversions, b.MinConversions),
		MinScore:       firstSet(a.MinScore, b.MinScore),
	}
}

func mergeWeights(s, fallback *WeightSettings) *WeightSettings {
	if s.isZero() && fallback.isZero() {
		return nil
	}
	var a, b WeightSettings
	if s != nil {
		a = *s
	}
	if fallback != nil {
		b = *fallback
	}
	return &WeightSettings{
		Analytics: firstSet(a.Analytics, b.Analytics),
		Lifecycle: firstSet(a.Lifecycle, b.Lifecycle),
		Search:    firstSet(a.Search, b.Search),
		Ads:       firstSet(a.Ads, b.Ads),
	}
}

// applyTo overwrites the fields of t that s sets.
func (s *ThresholdSettings) applyTo(t *types.Thresholds) {
	if s == nil {
		return
	}
	setFloat(&t.MinImpressions, s.MinImpressions)
	setFloat(&t.MinConversions, s.MinConversions)
	setFloat(&t.MinScore, s.MinScore)
}

func (s *WeightSettings) applyTo(w *types.Weights) {
	if s == nil {
		return
	}
	setFloat(&w.Analytics, s.Analytics)
	setFloat(&w.Lifecycle, s.Lifecycle)
	setFloat(&w.Search, s.Search)
	setFloat(&w.Ads, s.Ads)
}

func firstSet(a, b *float64) *float64 {
	if a != nil {
		v := *a
		return &v
	}
	if b != nil {
		v := *b
		return &v
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Float returns a pointer to v, for building settings in code.
func Float(v float64) *float64 {
	return &v
}
