package main

import (
	"context"
	"fmt"

	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  "Apply the embedded PostgreSQL schema. Every statement is idempotent, so the command is safe to rerun.",
	RunE: func(_ *cobra.Command, _ []string) error {
		databaseURL := envDefault(migrateDatabaseURL, "DATABASE_URL")
		if databaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
		}

		ctx := context.Background()
		database, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return err
		}
		log.Info().Msg("database schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(migrateCmd)
}
