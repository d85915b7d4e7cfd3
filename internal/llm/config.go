// Package llm provides the LLM client abstraction used for coaching narratives.
// Callers pick a capability tier; the configured provider maps it to a model.
package llm

import (
	"maps"
	"os"
	"strings"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short summaries and classification
	TierLite ModelTier = "lite"
	// TierStandard is for coaching narratives
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form reports
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float64
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.3,
	}
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o",
			TierAdvanced: "gpt-4.1",
		},
		Temperature: 0.3,
	}
}

// ConfigFromEnv selects the provider from LLM_PROVIDER and returns it with the
// API key read from GEMINI_API_KEY or OPENAI_API_KEY.
func ConfigFromEnv() (*Config, string) {
	switch Provider(strings.ToLower(os.Getenv("LLM_PROVIDER"))) {
	case ProviderOpenAI:
		return DefaultOpenAIConfig(), os.Getenv("OPENAI_API_KEY")
	default:
		return DefaultGeminiConfig(), os.Getenv("GEMINI_API_KEY")
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      maps.Clone(c.Models),
		Temperature: c.Temperature,
	}
	if newConfig.Models == nil {
		newConfig.Models = make(map[ModelTier]string)
	}
	newConfig.Models[tier] = model
	return newConfig
}
