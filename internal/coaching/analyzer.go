package coaching

import (
	"time"

	"github.com/jonathan/atlas-maximus/internal/types"
)

// Analyzer runs the coaching pipeline with a fixed rule table.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	rules Rules
	now   func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock sets the clock used to timestamp assessment metadata.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an analyzer using the given rules.
func NewAnalyzer(rules Rules, opts ...Option) *Analyzer {
	a := &Analyzer{rules: rules, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rules returns the analyzer's rule table.
func (a *Analyzer) Rules() Rules {
	return a.rules
}

// AnalyzeTeamData analyzes a bundle of team data with the default rules.
func AnalyzeTeamData(data types.TeamData) types.CoachingInsight {
	return NewAnalyzer(DefaultRules()).Analyze(data)
}

// Analyze runs every applicable stage and rolls the results up into an insight.
// Missing sections are skipped; the call never fails.
func (a *Analyzer) Analyze(data types.TeamData) types.CoachingInsight {
	now := a.now().UTC()

	var stages []stageResult
	if len(data.JiraIssues) > 0 {
		stages = append(stages,
			a.analyzeStoryQuality(data.JiraIssues, now),
			a.analyzeSprintHealth(data.JiraIssues, now),
			a.analyzeVelocity(data.JiraIssues, now),
		)
	}
	if len(data.Documents) > 0 {
		stages = append(stages,
			a.analyzeRetrospectives(data.Documents, now),
			a.analyzePlanning(data.Documents, now),
		)
	}
	if len(data.ConversationHistory) > 0 {
		stages = append(stages, a.analyzeConversations(data.ConversationHistory))
	}

	observations := make([]types.Observation, 0)
	assessments := make([]types.Assessment, 0)
	for _, s := range stages {
		observations = append(observations, s.observations...)
		if s.assessment != nil {
			assessments = append(assessments, *s.assessment)
		}
	}

	return types.CoachingInsight{
		Observations:    observations,
		Interventions:   GenerateInterventions(observations),
		Assessments:     assessments,
		OverallMaturity: OverallMaturity(assessments),
		FocusAreas:      FocusAreas(observations),
	}
}
