package main

import (
	"os"

	"github.com/jonathan/atlas-maximus/internal/config"
	"github.com/jonathan/atlas-maximus/internal/llm"
)

// llmSettings picks the provider and API key. The config file wins over
// LLM_PROVIDER and the provider's key variable.
func llmSettings(cfg config.Config) (*llm.Config, string) {
	llmConfig, apiKey := llm.ConfigFromEnv()
	switch llm.Provider(cfg.LLMProvider) {
	case llm.ProviderOpenAI:
		llmConfig, apiKey = llm.DefaultOpenAIConfig(), os.Getenv("OPENAI_API_KEY")
	case llm.ProviderGemini:
		llmConfig, apiKey = llm.DefaultGeminiConfig(), os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	return llmConfig, apiKey
}
