package types

// ObservationCategory classifies an observation and keys intervention templates.
type ObservationCategory string

// Observation categories.
const (
	CategoryStoryAcceptanceCriteria ObservationCategory = "story_acceptance_criteria"
	CategorySprintPlanning          ObservationCategory = "sprint_planning"
	CategoryTeamVelocity            ObservationCategory = "team_velocity"
	CategoryRetrospectiveQuality    ObservationCategory = "retrospective_quality"
	CategoryRiskManagement          ObservationCategory = "risk_management"
	CategoryContinuousImprovement   ObservationCategory = "continuous_improvement"
	CategoryTeamCollaboration       ObservationCategory = "team_collaboration"
)

// Severity is the ordered severity of an observation.
type Severity string

// Severity levels, lowest first.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// MaturityLevel is a team-capability stage.
type MaturityLevel string

// Maturity levels, least mature first.
const (
	MaturityForming      MaturityLevel = "forming"
	MaturityStorming     MaturityLevel = "storming"
	MaturityNorming      MaturityLevel = "norming"
	MaturityPerforming   MaturityLevel = "performing"
	MaturityTransforming MaturityLevel = "transforming"
)

// AssessmentType names the data source an assessment was derived from.
type AssessmentType string

// Assessment types.
const (
	AssessmentJiraAnalysis         AssessmentType = "jira_analysis"
	AssessmentDocumentAnalysis     AssessmentType = "document_analysis"
	AssessmentConversationAnalysis AssessmentType = "conversation_analysis"
)

// Priority of an intervention.
type Priority string

// Intervention priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Impact is the estimated impact of an intervention.
type Impact string

// Impact levels.
const (
	ImpactLow            Impact = "low"
	ImpactMedium         Impact = "medium"
	ImpactHigh           Impact = "high"
	ImpactTransformative Impact = "transformative"
)

// Effort is the estimated effort of an intervention.
type Effort string

// Effort levels.
const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Data source tags recorded on observations.
const (
	SourceJira         = "Jira Analysis"
	SourceDocument     = "Document Analysis"
	SourceConversation = "Conversation Analysis"
)

// Observation is a single detected issue or anti-pattern.
type Observation struct {
	Category      ObservationCategory `json:"category"`
	Severity      Severity            `json:"severity"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	DataSource    string              `json:"data_source"`
	DataEvidence  map[string]any      `json:"data_evidence,omitempty"`
	AffectedAreas []string            `json:"affected_areas"`
}

// Assessment is a scored evaluation of one analysis dimension.
type Assessment struct {
	AssessmentType  AssessmentType `json:"assessment_type"`
	Category        string         `json:"category"`
	CurrentScore    float64        `json:"current_score"`
	PreviousScore   *float64       `json:"previous_score,omitempty"`
	MaturityLevel   MaturityLevel  `json:"maturity_level"`
	Strengths       []string       `json:"strengths"`
	Weaknesses      []string       `json:"weaknesses"`
	Recommendations []string       `json:"recommendations"`
	DataAnalyzed    map[string]any `json:"data_analyzed,omitempty"`
}

// ActionItem is one step of an intervention.
type ActionItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Resources   []string `json:"resources,omitempty"`
}

// Intervention is an actionable remediation bundle for one observation category.
type Intervention struct {
	Category        ObservationCategory `json:"category"`
	ObservationIDs  []string            `json:"observation_ids"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	ActionItems     []ActionItem        `json:"action_items"`
	Priority        Priority            `json:"priority"`
	EstimatedImpact Impact              `json:"estimated_impact"`
	EstimatedEffort Effort              `json:"estimated_effort"`
}

// CoachingInsight is the complete output of one analysis run.
type CoachingInsight struct {
	Observations    []Observation  `json:"observations"`
	Interventions   []Intervention `json:"interventions"`
	Assessments     []Assessment   `json:"assessments"`
	OverallMaturity MaturityLevel  `json:"overall_maturity"`
	FocusAreas      []string       `json:"focus_areas"`
	Narrative       string         `json:"narrative,omitempty"`
}
