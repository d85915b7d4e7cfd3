package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jonathan/atlas-maximus/internal/coaching"
	"github.com/jonathan/atlas-maximus/internal/jira"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/spf13/cobra"
)

var importJiraCmd = &cobra.Command{
	Use:   "import-jira",
	Short: "Convert a Jira export into analyzer issues",
	Long: `Convert a Jira search response or a flat JSON array of issues into the issue
format the analyzer reads. With --bundle the output is a team data bundle that
can be passed straight to "atlas analyze".`,
	RunE: runImportJira,
}

var (
	importJiraInput  string
	importJiraOutput string
	importJiraBundle bool
)

func init() {
	importJiraCmd.Flags().StringVarP(&importJiraInput, "input", "i", "", "Path to the Jira export JSON")
	importJiraCmd.Flags().StringVarP(&importJiraOutput, "out", "o", "", "Path to the output JSON file")
	importJiraCmd.Flags().BoolVar(&importJiraBundle, "bundle", false, "Wrap the issues in a team data bundle")
	_ = importJiraCmd.MarkFlagRequired("input")
	_ = importJiraCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(importJiraCmd)
}

func runImportJira(cmd *cobra.Command, _ []string) error {
	_, err := importJira(importJiraInput, importJiraOutput, importJiraBundle, cmd.OutOrStdout())
	return err
}

// importJira converts the export at input and writes it to output, printing a
// per-sprint summary to out.
func importJira(input, output string, bundle bool, out io.Writer) ([]types.JiraIssue, error) {
	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	issues, err := jira.ParseIssues(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", input, err)
	}

	var result any = issues
	if bundle {
		result = types.TeamData{JiraIssues: issues}
	}
	if err := writeJSONFile(output, result); err != nil {
		return nil, err
	}

	stats := coaching.SprintStats(issues)
	_, _ = fmt.Fprintf(out, "Imported %s issues across %s sprints to %s\n",
		humanize.Comma(int64(len(issues))), humanize.Comma(int64(len(stats))), output)
	for _, s := range stats {
		_, _ = fmt.Fprintf(out, "  %-20s %3d/%-3d done  velocity %s\n",
			s.Sprint, s.Completed, s.Total, humanize.FormatFloat("#,###.#", s.Velocity))
	}
	return issues, nil
}
