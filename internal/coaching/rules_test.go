package coaching

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultRules_Valid(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
}

func TestRulesValidate_ReportsFirstInvalidRatio(t *testing.T) {
	rules := DefaultRules()
	rules.Story.MissingACRatio = 2
	rules.Sprint.CarryOverRatio = -1
	rules.Retro.ShallowRatio = 5

	for range 20 {
		err := rules.Validate()
		require.Error(t, err)
		assert.Equal(t, "story.missing_ac_ratio must be between 0 and 1, got 2", err.Error())
	}
}

func TestLoadRules_EmptyPath(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestLoadRules_Overlay(t *testing.T) {
	path := writeRules(t, `
story:
  baseline: 60
  min_description_length: 80
velocity:
  high_cov: 50
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, 60.0, rules.Story.Baseline)
	assert.Equal(t, 80, rules.Story.MinDescriptionLength)
	assert.Equal(t, 50.0, rules.Velocity.HighCoV)
	// untouched keys keep their defaults
	assert.Equal(t, 0.3, rules.Story.ShallowRatio)
	assert.Equal(t, 25.0, rules.Velocity.ModerateCoV)
	assert.Equal(t, DefaultRules().Sprint, rules.Sprint)
}

func TestLoadRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{name: "malformed yaml", content: "story: [baseline", message: "failed to parse rules YAML"},
		{name: "ratio out of range", content: "sprint:\n  carry_over_ratio: 1.5\n", message: "invalid rules"},
		{name: "inverted cov limits", content: "velocity:\n  moderate_cov: 60\n", message: "invalid rules"},
		{name: "repeat threshold too low", content: "conversation:\n  repeat_threshold: 1\n", message: "invalid rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := LoadRules(writeRules(t, tt.content))
			require.Error(t, err)

			var loadErr *RulesLoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.message, loadErr.Message)
			assert.Equal(t, DefaultRules(), rules)
		})
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))

	var loadErr *RulesLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestAnalyzer_CustomRulesChangeOutcome(t *testing.T) {
	rules := DefaultRules()
	rules.Velocity.HighCoV = 90
	rules.Velocity.ModerateCoV = 85

	issues := sprintTasks("Sprint 1", 1, 1, 10)
	issues = append(issues, sprintTasks("Sprint 2", 1, 1, 50)...)
	issues = append(issues, sprintTasks("Sprint 3", 1, 1, 10)...)

	result := NewAnalyzer(rules).analyzeVelocity(issues, fixedNow)

	assert.Empty(t, result.observations)
	assert.Equal(t, 80.0, result.assessment.CurrentScore)
	assert.Equal(t, rules, NewAnalyzer(rules).Rules())
}
