package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/atlas-maximus/internal/coaching"
	"github.com/jonathan/atlas-maximus/internal/config"
	"github.com/jonathan/atlas-maximus/internal/llm"
	"github.com/jonathan/atlas-maximus/internal/observability"
	"github.com/jonathan/atlas-maximus/internal/schemas"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a team data bundle into a coaching insight",
	Long: `Analyze a JSON bundle of Jira issues, documents and assistant conversations.
The bundle is validated against the team data schema, scored with the coaching
rules, and printed as a summary. Use --out to also write the insight as JSON.`,
	RunE: runAnalyze,
}

var (
	analyzeInput     string
	analyzeRules     string
	analyzeOutput    string
	analyzeNarrative bool
	analyzeAPIKey    string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "Path to the team data JSON bundle")
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "", "YAML coaching rule overrides")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "out", "o", "", "Write the insight JSON to this path")
	analyzeCmd.Flags().BoolVar(&analyzeNarrative, "narrative", false, "Add an LLM-written coach summary")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "LLM API key (defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeOptions are the resolved inputs of one analyze run.
type analyzeOptions struct {
	Input    string
	Rules    string
	Output   string
	Narrator *coaching.Narrator // nil skips the narrative
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = analyzeInput
	}
	if flags.Changed("rules") {
		cfg.Rules = analyzeRules
	}
	if flags.Changed("out") {
		cfg.Output = analyzeOutput
	}
	if flags.Changed("narrative") {
		cfg.Narrative = analyzeNarrative
	}
	if flags.Changed("api-key") {
		cfg.APIKey = analyzeAPIKey
	}
	cfg = cfg.MergeWithDefaults(config.Config{Rules: os.Getenv("COACHING_RULES_FILE")})

	if cfg.Input == "" {
		return fmt.Errorf("--input is required (via flag or config)")
	}

	ctx := context.Background()
	opts := analyzeOptions{Input: cfg.Input, Rules: cfg.Rules, Output: cfg.Output}
	if cfg.Narrative {
		llmConfig, apiKey := llmSettings(cfg)
		if apiKey == "" {
			return fmt.Errorf("an LLM API key is required for --narrative (set GEMINI_API_KEY, OPENAI_API_KEY or --api-key)")
		}
		client, err := llm.NewClient(ctx, llmConfig, apiKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()
		opts.Narrator = coaching.NewNarrator(client)
	}

	_, err = analyzeFile(ctx, opts, cmd.OutOrStdout())
	return err
}

// analyzeFile validates and analyzes one bundle, prints the summary to out and
// writes the JSON insight when an output path is set.
func analyzeFile(ctx context.Context, opts analyzeOptions, out io.Writer) (*types.CoachingInsight, error) {
	raw, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if err := schemas.ValidateTeamData(raw); err != nil {
		return nil, fmt.Errorf("input %s failed validation: %w", opts.Input, err)
	}

	var data types.TeamData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}

	rules, err := coaching.LoadRules(opts.Rules)
	if err != nil {
		return nil, err
	}

	insight := coaching.NewAnalyzer(rules).Analyze(data)
	log.Debug().
		Int("issues", len(data.JiraIssues)).
		Int("documents", len(data.Documents)).
		Int("conversations", len(data.ConversationHistory)).
		Str("maturity", string(insight.OverallMaturity)).
		Msg("analysis complete")

	if opts.Narrator != nil {
		text, err := opts.Narrator.Narrate(ctx, insight)
		if err != nil {
			log.Warn().Err(err).Msg("coaching narrative unavailable")
		} else {
			insight.Narrative = text
		}
	}

	observability.NewPrinter(out).PrintInsight(&insight)

	if opts.Output != "" {
		if err := writeJSONFile(opts.Output, insight); err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintf(out, "Insight written to %s\n", opts.Output)
	}
	return &insight, nil
}
