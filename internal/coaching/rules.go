// Package coaching implements the rule-based coaching analyzer: heuristic
// scoring of issue tracker, document and conversation data into observations,
// assessments, interventions and a maturity rating.
package coaching

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds every tunable threshold, baseline and penalty the analyzer applies.
// Ratios are fractions (0.3 == 30%); coefficient-of-variation limits are percentages.
type Rules struct {
	Story        StoryRules        `yaml:"story"`
	Sprint       SprintRules       `yaml:"sprint"`
	Velocity     VelocityRules     `yaml:"velocity"`
	Retro        RetroRules        `yaml:"retrospective"`
	Planning     PlanningRules     `yaml:"planning"`
	Conversation ConversationRules `yaml:"conversation"`
}

// StoryRules tunes the user story quality sub-analysis.
type StoryRules struct {
	Baseline             float64 `yaml:"baseline"`
	MinDescriptionLength int     `yaml:"min_description_length"`
	ShallowRatio         float64 `yaml:"shallow_ratio"`
	ShallowPenalty       float64 `yaml:"shallow_penalty"`
	MissingACRatio       float64 `yaml:"missing_ac_ratio"`
	MissingACPenalty     float64 `yaml:"missing_ac_penalty"`
	UnpointedRatio       float64 `yaml:"unpointed_ratio"`
	UnpointedPenalty     float64 `yaml:"unpointed_penalty"`
	ExampleLimit         int     `yaml:"example_limit"`
}

// SprintRules tunes the sprint health sub-analysis.
type SprintRules struct {
	Baseline          float64 `yaml:"baseline"`
	MinCompletionRate float64 `yaml:"min_completion_rate"`
	CompletionPenalty float64 `yaml:"completion_penalty"`
	CarryOverRatio    float64 `yaml:"carry_over_ratio"`
	CarryOverPenalty  float64 `yaml:"carry_over_penalty"`
	RecentSprints     int     `yaml:"recent_sprints"`
}

// VelocityRules tunes the velocity pattern sub-analysis.
type VelocityRules struct {
	Baseline        float64 `yaml:"baseline"`
	MinSprints      int     `yaml:"min_sprints"`
	HighCoV         float64 `yaml:"high_cov"`
	ModerateCoV     float64 `yaml:"moderate_cov"`
	HighPenalty     float64 `yaml:"high_penalty"`
	ModeratePenalty float64 `yaml:"moderate_penalty"`
	StableReward    float64 `yaml:"stable_reward"`
}

// RetroRules tunes the retrospective quality sub-analysis.
type RetroRules struct {
	Baseline              float64 `yaml:"baseline"`
	MissingActionsPenalty float64 `yaml:"missing_actions_penalty"`
	MinTextLength         int     `yaml:"min_text_length"`
	ShallowRatio          float64 `yaml:"shallow_ratio"`
	ShallowPenalty        float64 `yaml:"shallow_penalty"`
}

// PlanningRules tunes the planning quality sub-analysis.
type PlanningRules struct {
	Baseline           float64 `yaml:"baseline"`
	MissingRiskPenalty float64 `yaml:"missing_risk_penalty"`
}

// ConversationRules tunes the conversation repetition check.
type ConversationRules struct {
	RepeatThreshold int `yaml:"repeat_threshold"`
}

// DefaultRules returns the production rule table.
func DefaultRules() Rules {
	return Rules{
		Story: StoryRules{
			Baseline:             70,
			MinDescriptionLength: 50,
			ShallowRatio:         0.3,
			ShallowPenalty:       15,
			MissingACRatio:       0.4,
			MissingACPenalty:     20,
			UnpointedRatio:       0.2,
			UnpointedPenalty:     10,
			ExampleLimit:         3,
		},
		Sprint: SprintRules{
			Baseline:          75,
			MinCompletionRate: 0.7,
			CompletionPenalty: 20,
			CarryOverRatio:    0.3,
			CarryOverPenalty:  15,
			RecentSprints:     3,
		},
		Velocity: VelocityRules{
			Baseline:        70,
			MinSprints:      3,
			HighCoV:         40,
			ModerateCoV:     25,
			HighPenalty:     20,
			ModeratePenalty: 10,
			StableReward:    10,
		},
		Retro: RetroRules{
			Baseline:              70,
			MissingActionsPenalty: 25,
			MinTextLength:         500,
			ShallowRatio:          0.5,
			ShallowPenalty:        15,
		},
		Planning: PlanningRules{
			Baseline:           75,
			MissingRiskPenalty: 20,
		},
		Conversation: ConversationRules{
			RepeatThreshold: 3,
		},
	}
}

// LoadRules reads a YAML rule file and overlays it on DefaultRules.
// Keys absent from the file keep their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, &RulesLoadError{Path: path, Message: "failed to read rules file", Cause: err}
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return DefaultRules(), &RulesLoadError{Path: path, Message: "failed to parse rules YAML", Cause: err}
	}

	if err := rules.Validate(); err != nil {
		return DefaultRules(), &RulesLoadError{Path: path, Message: "invalid rules", Cause: err}
	}

	return rules, nil
}

// Validate checks that ratios are fractions and counts are positive.
func (r Rules) Validate() error {
	ratios := []struct {
		name  string
		value float64
	}{
		{"story.shallow_ratio", r.Story.ShallowRatio},
		{"story.missing_ac_ratio", r.Story.MissingACRatio},
		{"story.unpointed_ratio", r.Story.UnpointedRatio},
		{"sprint.min_completion_rate", r.Sprint.MinCompletionRate},
		{"sprint.carry_over_ratio", r.Sprint.CarryOverRatio},
		{"retrospective.shallow_ratio", r.Retro.ShallowRatio},
	}
	for _, f := range ratios {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", f.name, f.value)
		}
	}

	if r.Velocity.ModerateCoV > r.Velocity.HighCoV {
		return fmt.Errorf("velocity.moderate_cov (%v) must not exceed velocity.high_cov (%v)", r.Velocity.ModerateCoV, r.Velocity.HighCoV)
	}
	if r.Velocity.MinSprints < 1 {
		return fmt.Errorf("velocity.min_sprints must be at least 1, got %d", r.Velocity.MinSprints)
	}
	if r.Conversation.RepeatThreshold < 2 {
		return fmt.Errorf("conversation.repeat_threshold must be at least 2, got %d", r.Conversation.RepeatThreshold)
	}
	if r.Story.ExampleLimit < 0 || r.Sprint.RecentSprints < 0 {
		return fmt.Errorf("example limits must be non-negative")
	}
	return nil
}
