package main

import (
	"fmt"
	"io"

	"github.com/jonathan/atlas-maximus/internal/coaching"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective coaching rules as YAML",
	Long: `Print the coaching thresholds, baselines and penalties in effect after applying
--rules (or COACHING_RULES_FILE) on top of the defaults. The output is a valid
rules file.`,
	RunE: runRules,
}

var rulesFile string

func init() {
	rulesCmd.Flags().StringVar(&rulesFile, "rules", "", "YAML coaching rule overrides")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	return printRules(envDefault(rulesFile, "COACHING_RULES_FILE"), cmd.OutOrStdout())
}

func printRules(path string, out io.Writer) error {
	rules, err := coaching.LoadRules(path)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(rules); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return enc.Close()
}

