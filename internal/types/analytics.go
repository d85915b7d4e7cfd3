package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SnapshotType selects which metric family an analytics snapshot covers.
type SnapshotType string

// Snapshot types. Unknown values fall back to a system-wide aggregate.
const (
	SnapshotUserEngagement  SnapshotType = "user_engagement"
	SnapshotTeamPerformance SnapshotType = "team_performance"
	SnapshotDocumentUsage   SnapshotType = "document_usage"
	SnapshotQueryPatterns   SnapshotType = "query_patterns"
	SnapshotRiskTrends      SnapshotType = "risk_trends"
	SnapshotVelocityTrends  SnapshotType = "velocity_trends"
)

// AllSnapshotTypes lists the recognised snapshot types in display order.
var AllSnapshotTypes = []SnapshotType{
	SnapshotUserEngagement,
	SnapshotTeamPerformance,
	SnapshotDocumentUsage,
	SnapshotQueryPatterns,
	SnapshotRiskTrends,
	SnapshotVelocityTrends,
}

// TrendDirection classifies a predicted trend.
type TrendDirection string

// Trend directions.
const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// TrendPoint is one bucket of a day- or sprint-keyed series.
type TrendPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Prediction is a one-step linear extrapolation of a metric.
type Prediction struct {
	Metric     string         `json:"metric"`
	Prediction float64        `json:"prediction"`
	Confidence float64        `json:"confidence"`
	Trend      TrendDirection `json:"trend"`
}

// Snapshot is the result of one analytics generation for a type, period and scope.
type Snapshot struct {
	ID          uuid.UUID      `json:"id"`
	Type        SnapshotType   `json:"type"`
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	UserID      uuid.UUID      `json:"user_id,omitzero"`
	TeamID      uuid.UUID      `json:"team_id,omitzero"`
	Metrics     map[string]any `json:"metrics"`
	Trends      []TrendPoint   `json:"trends"`
	Predictions []Prediction   `json:"predictions"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ActivityEvent is an append-only record of a user action.
type ActivityEvent struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	TeamID    uuid.UUID      `json:"team_id,omitzero"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// QueryLog is an append-only record of an assistant query.
type QueryLog struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	TeamID         uuid.UUID `json:"team_id,omitzero"`
	Query          string    `json:"query"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// TeamMetric is a per-sprint team delivery record.
type TeamMetric struct {
	ID             uuid.UUID `json:"id"`
	TeamID         uuid.UUID `json:"team_id"`
	Sprint         string    `json:"sprint"`
	Velocity       float64   `json:"velocity"`
	CompletionRate float64   `json:"completion_rate"`
	CreatedAt      time.Time `json:"created_at"`
}

// TeamRiskScore is a per-sprint risk score record.
type TeamRiskScore struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"team_id"`
	Sprint    string    `json:"sprint"`
	RiskScore float64   `json:"risk_score"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentRecord is the stored metadata of an uploaded document.
type DocumentRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TeamID    uuid.UUID `json:"team_id,omitzero"`
	Name      string    `json:"name"`
	FileType  string    `json:"file_type"`
	ViewCount int       `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotRequest is the API request to generate a snapshot.
type SnapshotRequest struct {
	Type      SnapshotType `json:"type" validate:"required"`
	StartDate time.Time    `json:"start_date" validate:"required"`
	EndDate   time.Time    `json:"end_date" validate:"required,gtfield=StartDate"`
	TeamID    uuid.UUID    `json:"team_id,omitzero"`
}

// TrackActivityRequest is the API request to record an activity event.
type TrackActivityRequest struct {
	Action   string         `json:"action" validate:"required,max=100"`
	Resource string         `json:"resource,omitempty" validate:"max=255"`
	TeamID   uuid.UUID      `json:"team_id,omitzero"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TrackQueryRequest is the API request to record an assistant query.
type TrackQueryRequest struct {
	Query          string    `json:"query" validate:"required"`
	ResponseTimeMs int64     `json:"response_time_ms" validate:"gte=0"`
	TeamID         uuid.UUID `json:"team_id,omitzero"`
}

// AnalyzeRequest is the API request to run the coaching analyzer.
type AnalyzeRequest struct {
	TeamData
	TeamID    uuid.UUID `json:"team_id,omitzero"`
	Narrative bool      `json:"narrative,omitempty"`
}

// Validate validates the SnapshotRequest using the validator.
func (r *SnapshotRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TrackActivityRequest using the validator.
func (r *TrackActivityRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TrackQueryRequest using the validator.
func (r *TrackQueryRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
