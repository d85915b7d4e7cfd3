package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/config"
	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/jonathan/atlas-maximus/internal/observability"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Generate analytics snapshots from the database",
	Long: `Generate one analytics snapshot type, or all of them when --type is omitted,
over a date window. Dates are YYYY-MM-DD and the end date is inclusive.`,
	RunE: runSnapshot,
}

var (
	snapshotType        string
	snapshotStart       string
	snapshotEnd         string
	snapshotTeam        string
	snapshotUser        string
	snapshotDatabaseURL string
	snapshotRedisURL    string
	snapshotSave        bool
	snapshotOutput      string
)

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotType, "type", "t", "", "Snapshot type (default: all types)")
	snapshotCmd.Flags().StringVar(&snapshotStart, "start", "", "Window start date, YYYY-MM-DD")
	snapshotCmd.Flags().StringVar(&snapshotEnd, "end", "", "Window end date, YYYY-MM-DD (inclusive)")
	snapshotCmd.Flags().StringVar(&snapshotTeam, "team", "", "Team ID to scope team snapshots to")
	snapshotCmd.Flags().StringVar(&snapshotUser, "user", "", "User ID to scope activity snapshots to")
	snapshotCmd.Flags().StringVar(&snapshotDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	snapshotCmd.Flags().StringVar(&snapshotRedisURL, "redis-url", "", "Redis URL for the snapshot cache (defaults to REDIS_URL env var)")
	snapshotCmd.Flags().BoolVar(&snapshotSave, "save", false, "Store the generated snapshots")
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "out", "o", "", "Write the snapshots as JSON to this path")
	_ = snapshotCmd.MarkFlagRequired("start")
	_ = snapshotCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(snapshotCmd)
}

// snapshotSaver persists generated snapshots.
type snapshotSaver interface {
	SaveSnapshot(ctx context.Context, s *types.Snapshot) error
}

// snapshotRequest is one resolved snapshot run.
type snapshotRequest struct {
	Type   types.SnapshotType // empty generates every type
	Scope  analytics.Scope
	Output string
}

// parseWindow turns inclusive YYYY-MM-DD dates into a UTC window ending at the
// last instant of the end date.
func parseWindow(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start date %q: expected YYYY-MM-DD", start)
	}
	to, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end date %q: expected YYYY-MM-DD", end)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return from, to.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// parseOptionalID parses a UUID flag, treating empty as uuid.Nil.
func parseOptionalID(flag, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return id, nil
}

// resolveSnapshotRequest validates the flags merged with the config file.
func resolveSnapshotRequest(cfg config.Config, kind, start, end string) (snapshotRequest, error) {
	if kind != "" && !slices.Contains(types.AllSnapshotTypes, types.SnapshotType(kind)) {
		log.Warn().Str("type", kind).Msg("unrecognised snapshot type, generating a system overview")
	}
	from, to, err := parseWindow(start, end)
	if err != nil {
		return snapshotRequest{}, err
	}
	teamID, err := parseOptionalID("team", cfg.TeamID)
	if err != nil {
		return snapshotRequest{}, err
	}
	userID, err := parseOptionalID("user", cfg.UserID)
	if err != nil {
		return snapshotRequest{}, err
	}
	return snapshotRequest{
		Type:   types.SnapshotType(kind),
		Scope:  analytics.Scope{Start: from, End: to, UserID: userID, TeamID: teamID},
		Output: cfg.Output,
	}, nil
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("team") {
		cfg.TeamID = snapshotTeam
	}
	if flags.Changed("user") {
		cfg.UserID = snapshotUser
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = snapshotDatabaseURL
	}
	if flags.Changed("redis-url") {
		cfg.RedisURL = snapshotRedisURL
	}
	if flags.Changed("out") {
		cfg.Output = snapshotOutput
	}

	req, err := resolveSnapshotRequest(cfg, snapshotType, snapshotStart, snapshotEnd)
	if err != nil {
		return err
	}

	cfg.DatabaseURL = envDefault(cfg.DatabaseURL, "DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	var opts []analytics.Option
	if redisURL := envDefault(cfg.RedisURL, "REDIS_URL"); redisURL != "" {
		client, err := analytics.ConnectRedis(ctx, redisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		opts = append(opts, analytics.WithCache(analytics.NewRedisCache(client, analytics.DefaultCacheTTL)))
	}

	var saver snapshotSaver
	if snapshotSave {
		saver = database
	}
	_, err = generateSnapshots(ctx, analytics.NewEngine(database, opts...), saver, req, cmd.OutOrStdout())
	return err
}

// generateSnapshots runs req, optionally saves and writes the results, and
// prints each snapshot to out.
func generateSnapshots(ctx context.Context, engine *analytics.Engine, saver snapshotSaver, req snapshotRequest, out io.Writer) ([]*types.Snapshot, error) {
	var snapshots []*types.Snapshot
	if req.Type == "" {
		all, err := engine.GenerateAll(ctx, req.Scope)
		if err != nil {
			return nil, err
		}
		snapshots = all
	} else {
		snapshot, err := engine.GenerateSnapshot(ctx, req.Type, req.Scope)
		if err != nil {
			return nil, err
		}
		snapshots = []*types.Snapshot{snapshot}
	}

	printer := observability.NewPrinter(out)
	for _, s := range snapshots {
		if saver != nil {
			if err := saver.SaveSnapshot(ctx, s); err != nil {
				return nil, fmt.Errorf("failed to save %s snapshot: %w", s.Type, err)
			}
		}
		printer.PrintSnapshot(s)
	}

	if req.Output != "" {
		if err := writeJSONFile(req.Output, snapshots); err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintf(out, "Snapshots written to %s\n", req.Output)
	}
	return snapshots, nil
}
