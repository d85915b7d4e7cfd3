package analytics

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// topQueryLimit caps the number of most frequent queries reported.
const topQueryLimit = 10

// QueryCount is one entry of the most-frequent-queries list.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// snapshotData is the computed body of a snapshot.
type snapshotData struct {
	metrics     map[string]any
	trends      []types.TrendPoint
	predictions []types.Prediction
}

func emptyData() snapshotData {
	return snapshotData{
		metrics:     map[string]any{},
		trends:      []types.TrendPoint{},
		predictions: []types.Prediction{},
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (e *Engine) userEngagement(ctx context.Context, scope Scope) (snapshotData, error) {
	events, err := e.store.ListActivities(ctx, scope)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list activities: %w", err)
	}

	users := make(map[uuid.UUID]struct{})
	actions := make(map[string]int)
	for _, ev := range events {
		users[ev.UserID] = struct{}{}
		actions[ev.Action]++
	}

	perUser := 0.0
	if len(users) > 0 {
		perUser = float64(len(events)) / float64(len(users))
	}

	data := emptyData()
	data.metrics = map[string]any{
		"total_activities":     len(events),
		"active_users":         len(users),
		"activities_per_user":  perUser,
		"activities_by_action": actions,
	}
	data.trends = dailyCounts(events, func(ev types.ActivityEvent) time.Time { return ev.CreatedAt })
	return data, nil
}

func (e *Engine) teamPerformance(ctx context.Context, scope Scope) (snapshotData, error) {
	if !scope.HasTeam() {
		return emptyData(), nil
	}
	records, err := e.store.ListTeamMetrics(ctx, scope)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list team metrics: %w", err)
	}

	velocities := make([]float64, 0, len(records))
	completion := make([]float64, 0, len(records))
	for _, r := range records {
		velocities = append(velocities, r.Velocity)
		completion = append(completion, r.CompletionRate)
	}

	data := emptyData()
	data.metrics = map[string]any{
		"average_velocity":        mean(velocities),
		"average_completion_rate": mean(completion),
		"sprint_count":            len(records),
	}
	data.trends = sprintMeans(records,
		func(r types.TeamMetric) string { return r.Sprint },
		func(r types.TeamMetric) float64 { return r.Velocity })
	data.predictions = predictions("velocity", velocities, velocityConfidence)
	return data, nil
}

func (e *Engine) documentUsage(ctx context.Context, scope Scope) (snapshotData, error) {
	docs, err := e.store.ListDocuments(ctx, scope)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list documents: %w", err)
	}

	views := 0
	byType := make(map[string]int)
	for _, d := range docs {
		views += d.ViewCount
		byType[d.FileType]++
	}

	avgViews := 0.0
	if len(docs) > 0 {
		avgViews = float64(views) / float64(len(docs))
	}

	data := emptyData()
	data.metrics = map[string]any{
		"total_documents":   len(docs),
		"total_views":       views,
		"average_views":     avgViews,
		"documents_by_type": byType,
	}
	data.trends = dailyCounts(docs, func(d types.DocumentRecord) time.Time { return d.CreatedAt })
	return data, nil
}

// topQueries ranks queries by exact-string frequency. Ties keep first-seen order.
func topQueries(logs []types.QueryLog, limit int) []QueryCount {
	index := make(map[string]int)
	var counts []QueryCount
	for _, l := range logs {
		i, ok := index[l.Query]
		if !ok {
			i = len(counts)
			index[l.Query] = i
			counts = append(counts, QueryCount{Query: l.Query})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	if counts == nil {
		counts = []QueryCount{}
	}
	return counts
}

func (e *Engine) queryPatterns(ctx context.Context, scope Scope) (snapshotData, error) {
	logs, err := e.store.ListQueryLogs(ctx, scope)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list query logs: %w", err)
	}

	responseTimes := make([]float64, 0, len(logs))
	for _, l := range logs {
		responseTimes = append(responseTimes, float64(l.ResponseTimeMs))
	}

	data := emptyData()
	data.metrics = map[string]any{
		"total_queries":            len(logs),
		"top_queries":              topQueries(logs, topQueryLimit),
		"average_response_time_ms": mean(responseTimes),
	}
	data.trends = dailyCounts(logs, func(l types.QueryLog) time.Time { return l.CreatedAt })
	return data, nil
}

func (e *Engine) riskTrends(ctx context.Context, scope Scope) (snapshotData, error) {
	if !scope.HasTeam() {
		return emptyData(), nil
	}
	records, err := e.store.ListRiskScores(ctx, scope)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list risk scores: %w", err)
	}

	scores := make([]float64, 0, len(records))
	peak := 0.0
	for _, r := range records {
		scores = append(scores, r.RiskScore)
		peak = max(peak, r.RiskScore)
	}

	data := emptyData()
	data.metrics = map[string]any{
		"average_risk_score": mean(scores),
		"max_risk_score":     peak,
		"sprint_count":       len(records),
	}
	data.trends = sprintMeans(records,
		func(r types.TeamRiskScore) string { return r.Sprint },
		func(r types.TeamRiskScore) float64 { return r.RiskScore })
	data.predictions = predictions("risk_score", scores, riskConfidence)
	return data, nil
}

func (e *Engine) velocityTrends(ctx context.Context, scope Scope) (snapshotData, error) {
	if !scope.HasTeam() {
		return emptyData(), nil
	}
	records, err := e.store.ListTeamMetrics(ctx, scope)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list team metrics: %w", err)
	}

	velocities := make([]float64, 0, len(records))
	for _, r := range records {
		velocities = append(velocities, r.Velocity)
	}

	data := emptyData()
	metrics := map[string]any{
		"average_velocity": mean(velocities),
		"sprint_count":     len(records),
	}
	if len(velocities) > 0 {
		metrics["min_velocity"] = slices.Min(velocities)
		metrics["max_velocity"] = slices.Max(velocities)
	}
	data.metrics = metrics
	data.trends = sprintMeans(records,
		func(r types.TeamMetric) string { return r.Sprint },
		func(r types.TeamMetric) float64 { return r.Velocity })
	data.predictions = predictions("velocity", velocities, velocityConfidence)
	return data, nil
}

// systemOverview is the fallback for unrecognised snapshot types: unscoped
// counts across the whole system for the window.
func (e *Engine) systemOverview(ctx context.Context, scope Scope) (snapshotData, error) {
	window := Scope{Start: scope.Start, End: scope.End}

	users, err := e.store.CountUsers(ctx)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to count users: %w", err)
	}
	events, err := e.store.ListActivities(ctx, window)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list activities: %w", err)
	}
	docs, err := e.store.ListDocuments(ctx, window)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list documents: %w", err)
	}
	logs, err := e.store.ListQueryLogs(ctx, window)
	if err != nil {
		return snapshotData{}, fmt.Errorf("failed to list query logs: %w", err)
	}

	data := emptyData()
	data.metrics = map[string]any{
		"total_users":      users,
		"total_activities": len(events),
		"total_documents":  len(docs),
		"total_queries":    len(logs),
	}
	return data, nil
}
