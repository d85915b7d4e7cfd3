// Package main provides the atlas command line: the coaching analyzer, analytics
// snapshots and the REST API server.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/atlas-maximus/internal/config"
	"github.com/jonathan/atlas-maximus/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Atlas Maximus agile coaching toolkit",
	Long:  "Atlas Maximus analyzes team delivery data into coaching insights and aggregates usage into analytics snapshots, from the command line or over a REST API.",
	// Commands print their own usage for flag errors only.
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.New(logger.Options{
			Env:     os.Getenv("APP_ENV"),
			Verbose: verbose || os.Getenv("LOG_LEVEL") == "debug",
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (flags override its values)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads --config when given. The result is empty otherwise.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Config{}, nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}

// envDefault returns value, or the named environment variable when value is empty.
func envDefault(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
