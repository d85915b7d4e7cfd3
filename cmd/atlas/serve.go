package main

import (
	"context"
	"fmt"

	"github.com/jonathan/atlas-maximus/internal/config"
	"github.com/jonathan/atlas-maximus/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort        int
	serveDatabaseURL string
	serveRedisURL    string
	serveRules       string
	serveUseBrowser  bool
	serveAPIKey      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing authentication, team, coaching and analytics endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	serveCmd.Flags().StringVar(&serveRedisURL, "redis-url", "", "Redis URL for the snapshot cache (defaults to REDIS_URL env var)")
	serveCmd.Flags().StringVar(&serveRules, "rules", "", "YAML coaching rule overrides (defaults to COACHING_RULES_FILE env var)")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Render short fetched documents in a headless browser (requires Chrome)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "LLM API key for coaching narratives")
	rootCmd.AddCommand(serveCmd)
}

// serveConfig merges the config file, flags and environment into server settings.
func serveConfig(cmd *cobra.Command, cfg config.Config) (server.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = servePort
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = serveDatabaseURL
	}
	if flags.Changed("redis-url") {
		cfg.RedisURL = serveRedisURL
	}
	if flags.Changed("rules") {
		cfg.Rules = serveRules
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = serveUseBrowser
	}
	if flags.Changed("api-key") {
		cfg.APIKey = serveAPIKey
	}
	cfg = cfg.MergeWithDefaults(config.Config{Port: servePort})

	cfg.DatabaseURL = envDefault(cfg.DatabaseURL, "DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return server.Config{}, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	if err := cfg.Validate(); err != nil {
		return server.Config{}, err
	}

	llmConfig, apiKey := llmSettings(cfg)
	return server.Config{
		Port:        cfg.Port,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    envDefault(cfg.RedisURL, "REDIS_URL"),
		RulesFile:   envDefault(cfg.Rules, "COACHING_RULES_FILE"),
		LLM:         llmConfig,
		APIKey:      apiKey,
		UseBrowser:  cfg.UseBrowser,
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	serverConfig, err := serveConfig(cmd, cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(context.Background(), serverConfig)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}
