// Package config provides configuration loading and validation for the atlas CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Config is the optional JSON config file read by the CLI (--config).
// Values act as defaults for flags the user did not pass.
type Config struct {
	// Files
	Input  string `json:"input,omitempty"`  // Team data bundle or Jira export
	Rules  string `json:"rules,omitempty"`  // YAML coaching rule overrides
	Output string `json:"output,omitempty"` // Where to write results

	// Scope
	TeamID string `json:"team_id,omitempty"`
	UserID string `json:"user_id,omitempty"`

	// Services
	DatabaseURL string `json:"database_url,omitempty"`
	RedisURL    string `json:"redis_url,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	LLMProvider string `json:"llm_provider,omitempty"` // gemini or openai
	Port        int    `json:"port,omitempty"`

	// Behavior
	Narrative  bool `json:"narrative,omitempty"`   // Ask the LLM for a coach summary
	UseBrowser bool `json:"use_browser,omitempty"` // Headless browser fallback for fetched documents
	Verbose    bool `json:"verbose,omitempty"`
}

// DefaultPort is the API server port when nothing else is configured.
const DefaultPort = 8080

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks value ranges and referenced files. Required fields are checked
// by each command after merging with flags.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.LLMProvider != "" && c.LLMProvider != "gemini" && c.LLMProvider != "openai" {
		return fmt.Errorf("config error: 'llm_provider' must be gemini or openai, got %q", c.LLMProvider)
	}
	for field, id := range map[string]string{"team_id": c.TeamID, "user_id": c.UserID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("config error: '%s' is not a valid UUID: %s", field, id)
		}
	}
	for field, path := range map[string]string{"input": c.Input, "rules": c.Rules} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", field, path)
		}
	}
	return nil
}

// MergeWithDefaults returns a copy of c with empty fields filled from defaults.
// Bools are not merged because unset and false look the same.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	for _, f := range []struct{ dst, src *string }{
		{&result.Input, &defaults.Input},
		{&result.Rules, &defaults.Rules},
		{&result.Output, &defaults.Output},
		{&result.TeamID, &defaults.TeamID},
		{&result.UserID, &defaults.UserID},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.RedisURL, &defaults.RedisURL},
		{&result.APIKey, &defaults.APIKey},
		{&result.LLMProvider, &defaults.LLMProvider},
	} {
		if *f.dst == "" {
			*f.dst = *f.src
		}
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}
	return result
}
