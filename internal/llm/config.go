// Package llm wraps the generative model used to narrate synthesis results.
package llm

// ModelTier represents the capability level of a model
type ModelTier string

const (
	// TierLite is for short summaries and labelling
	TierLite ModelTier = "lite"
	// TierStandard is for structured briefs
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form analysis
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultTemperature keeps generated briefs close to the supplied numbers.
const DefaultTemperature float32 = 0.2

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// GetModel returns the model name for a given tier, falling back to standard then lite.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c with model assigned to tier. An empty model leaves c's mapping.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	if model != "" {
		next.Models[tier] = model
	}
	return next
}
