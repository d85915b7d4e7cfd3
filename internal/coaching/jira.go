package coaching

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonathan/atlas-maximus/internal/types"
)

// Assessment category names for the issue tracker sub-analyses.
const (
	CategoryStoryQuality = "User Story Quality"
	CategorySprintHealth = "Sprint Health"
	CategoryVelocity     = "Velocity & Predictability"
)

// sprintGroup is the issues of one sprint, in input order.
type sprintGroup struct {
	Sprint string
	Issues []types.JiraIssue
}

// groupBySprint groups issues by sprint label in first-seen order. Issues
// without a sprint are left out.
func groupBySprint(issues []types.JiraIssue) []sprintGroup {
	index := make(map[string]int)
	var groups []sprintGroup
	for _, issue := range issues {
		sprint := strings.TrimSpace(issue.Sprint)
		if sprint == "" {
			continue
		}
		i, ok := index[sprint]
		if !ok {
			i = len(groups)
			index[sprint] = i
			groups = append(groups, sprintGroup{Sprint: sprint})
		}
		groups[i].Issues = append(groups[i].Issues, issue)
	}
	return groups
}

// SprintStat summarises one sprint.
type SprintStat struct {
	Sprint         string  `json:"sprint"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
	Velocity       float64 `json:"velocity"`
}

// SprintStats returns per-sprint totals for issues that carry a sprint label,
// in first-seen sprint order.
func SprintStats(issues []types.JiraIssue) []SprintStat {
	return sprintStats(groupBySprint(issues))
}

func sprintStats(groups []sprintGroup) []SprintStat {
	stats := make([]SprintStat, 0, len(groups))
	for _, g := range groups {
		stat := SprintStat{Sprint: g.Sprint, Total: len(g.Issues)}
		for _, issue := range g.Issues {
			if IsDone(issue) {
				stat.Completed++
				stat.Velocity += issue.Points()
			}
		}
		stat.CompletionRate = ratio(stat.Completed, stat.Total)
		stats = append(stats, stat)
	}
	return stats
}

// VelocityStats describes the spread of per-sprint velocities.
type VelocityStats struct {
	Mean   float64
	StdDev float64
	// CoV is the coefficient of variation as a percentage; zero when the mean is zero.
	CoV float64
}

// ComputeVelocityStats returns mean, population standard deviation and CoV.
func ComputeVelocityStats(velocities []float64) VelocityStats {
	if len(velocities) == 0 {
		return VelocityStats{}
	}
	sum := 0.0
	for _, v := range velocities {
		sum += v
	}
	mean := sum / float64(len(velocities))

	variance := 0.0
	for _, v := range velocities {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(velocities))
	stdDev := math.Sqrt(variance)

	cov := 0.0
	if mean != 0 {
		cov = stdDev / mean * 100
	}
	return VelocityStats{Mean: mean, StdDev: stdDev, CoV: cov}
}

func exampleKeys(issues []types.JiraIssue, limit int) []string {
	keys := make([]string, 0, limit)
	for _, issue := range issues {
		if len(keys) >= limit {
			break
		}
		if issue.Key != "" {
			keys = append(keys, issue.Key)
		}
	}
	return keys
}

// analyzeStoryQuality scores how well user stories are written.
func (a *Analyzer) analyzeStoryQuality(issues []types.JiraIssue, now time.Time) stageResult {
	rules := a.rules.Story

	var stories []types.JiraIssue
	for _, issue := range issues {
		if IsStory(issue) {
			stories = append(stories, issue)
		}
	}
	if len(stories) == 0 {
		return stageResult{}
	}

	var shallow, missingAC, unpointed []types.JiraIssue
	for _, story := range stories {
		if HasShallowDescription(story.Description, rules.MinDescriptionLength) {
			shallow = append(shallow, story)
		}
		if !HasAcceptanceCriteria(story.Description) {
			missingAC = append(missingAC, story)
		}
		if IsUnpointed(story) {
			unpointed = append(unpointed, story)
		}
	}

	total := len(stories)
	card := newScorecard(rules.Baseline)
	var observations []types.Observation

	if ratio(len(shallow), total) >= rules.ShallowRatio {
		card.penalize(rules.ShallowPenalty,
			fmt.Sprintf("%d of %d stories have shallow or missing descriptions", len(shallow), total),
			"Expand story descriptions with context, user value and constraints")
		observations = append(observations, types.Observation{
			Category:    types.CategoryStoryAcceptanceCriteria,
			Severity:    types.SeverityHigh,
			Title:       "User stories have shallow or missing descriptions",
			Description: fmt.Sprintf("%.0f%% of stories have descriptions shorter than %d characters, which leaves intent and scope open to interpretation.", ratio(len(shallow), total)*100, rules.MinDescriptionLength),
			DataSource:  types.SourceJira,
			DataEvidence: map[string]any{
				"total_stories": total,
				"shallow_count": len(shallow),
				"examples":      exampleKeys(shallow, rules.ExampleLimit),
			},
			AffectedAreas: []string{"Story Refinement", "Sprint Planning", "Delivery Quality"},
		})
	}

	if ratio(len(missingAC), total) >= rules.MissingACRatio {
		card.penalize(rules.MissingACPenalty,
			fmt.Sprintf("%d of %d stories lack acceptance criteria", len(missingAC), total),
			"Add explicit acceptance criteria to every story before it enters a sprint")
		observations = append(observations, types.Observation{
			Category:    types.CategoryStoryAcceptanceCriteria,
			Severity:    types.SeverityCritical,
			Title:       "Stories are missing acceptance criteria",
			Description: fmt.Sprintf("%.0f%% of stories do not state acceptance criteria, so there is no shared definition of when the work is complete.", ratio(len(missingAC), total)*100),
			DataSource:  types.SourceJira,
			DataEvidence: map[string]any{
				"total_stories":    total,
				"missing_ac_count": len(missingAC),
				"examples":         exampleKeys(missingAC, rules.ExampleLimit),
			},
			AffectedAreas: []string{"Definition of Done", "Quality Assurance", "Stakeholder Alignment"},
		})
	}

	if ratio(len(unpointed), total) >= rules.UnpointedRatio {
		card.penalize(rules.UnpointedPenalty,
			fmt.Sprintf("%d of %d stories are not estimated", len(unpointed), total),
			"Estimate every story during refinement so capacity planning is possible")
		observations = append(observations, types.Observation{
			Category:    types.CategorySprintPlanning,
			Severity:    types.SeverityMedium,
			Title:       "Inconsistent story pointing",
			Description: fmt.Sprintf("%.0f%% of stories have no story point estimate, which undermines velocity tracking and forecasting.", ratio(len(unpointed), total)*100),
			DataSource:  types.SourceJira,
			DataEvidence: map[string]any{
				"total_stories":   total,
				"unpointed_count": len(unpointed),
				"examples":        exampleKeys(unpointed, rules.ExampleLimit),
			},
			AffectedAreas: []string{"Estimation", "Capacity Planning"},
		})
	}

	if len(observations) == 0 {
		card.strength("Stories are consistently described, estimated and carry acceptance criteria")
	}

	assessment := card.assessment(types.AssessmentJiraAnalysis, CategoryStoryQuality, map[string]any{
		"total_issues":  len(issues),
		"total_stories": total,
		"analyzed_at":   now,
	})
	return stageResult{observations: observations, assessment: &assessment}
}

// analyzeSprintHealth scores sprint completion and carry-over.
func (a *Analyzer) analyzeSprintHealth(issues []types.JiraIssue, now time.Time) stageResult {
	rules := a.rules.Sprint

	groups := groupBySprint(issues)
	if len(groups) == 0 {
		return stageResult{}
	}
	stats := sprintStats(groups)

	rateSum := 0.0
	for _, s := range stats {
		rateSum += s.CompletionRate
	}
	meanRate := rateSum / float64(len(stats))

	carryOver := 0
	for _, g := range groups {
		for _, issue := range g.Issues {
			if IsCarryOver(issue) {
				carryOver++
			}
		}
	}
	carryOverRatio := ratio(carryOver, len(issues))

	card := newScorecard(rules.Baseline)
	var observations []types.Observation

	if meanRate < rules.MinCompletionRate {
		recent := stats[max(0, len(stats)-rules.RecentSprints):]
		card.penalize(rules.CompletionPenalty,
			fmt.Sprintf("Average sprint completion rate is %.0f%%", meanRate*100),
			"Reduce sprint commitments to match demonstrated capacity")
		observations = append(observations, types.Observation{
			Category:    types.CategorySprintPlanning,
			Severity:    types.SeverityHigh,
			Title:       "Low sprint completion rate",
			Description: fmt.Sprintf("Sprints complete on average %.0f%% of committed work, below the %.0f%% healthy threshold. The team is consistently over-committing.", meanRate*100, rules.MinCompletionRate*100),
			DataSource:  types.SourceJira,
			DataEvidence: map[string]any{
				"average_completion_rate": meanRate,
				"sprint_count":            len(stats),
				"recent_sprints":          recent,
			},
			AffectedAreas: []string{"Sprint Planning", "Predictability", "Stakeholder Trust"},
		})
	} else {
		card.strength(fmt.Sprintf("Sprints complete %.0f%% of committed work on average", meanRate*100))
	}

	if carryOverRatio > rules.CarryOverRatio {
		card.penalize(rules.CarryOverPenalty,
			fmt.Sprintf("%d issues carried over unfinished", carryOver),
			"Split large items and limit work in progress to reduce carry-over")
		observations = append(observations, types.Observation{
			Category:    types.CategorySprintPlanning,
			Severity:    types.SeverityMedium,
			Title:       "High sprint carry-over",
			Description: fmt.Sprintf("%.0f%% of issues were assigned to a sprint but not finished, so work routinely spills into following sprints.", carryOverRatio*100),
			DataSource:  types.SourceJira,
			DataEvidence: map[string]any{
				"carry_over_count": carryOver,
				"total_issues":     len(issues),
				"carry_over_ratio": carryOverRatio,
			},
			AffectedAreas: []string{"Sprint Planning", "Flow"},
		})
	}

	assessment := card.assessment(types.AssessmentJiraAnalysis, CategorySprintHealth, map[string]any{
		"total_issues": len(issues),
		"sprint_count": len(stats),
		"analyzed_at":  now,
	})
	return stageResult{observations: observations, assessment: &assessment}
}

// analyzeVelocity scores the stability of completed story points per sprint.
func (a *Analyzer) analyzeVelocity(issues []types.JiraIssue, now time.Time) stageResult {
	rules := a.rules.Velocity

	stats := sprintStats(groupBySprint(issues))
	if len(stats) < rules.MinSprints {
		return stageResult{}
	}

	velocities := make([]float64, 0, len(stats))
	for _, s := range stats {
		velocities = append(velocities, s.Velocity)
	}
	vs := ComputeVelocityStats(velocities)

	card := newScorecard(rules.Baseline)
	var observations []types.Observation
	evidence := map[string]any{
		"velocities":               velocities,
		"mean":                     vs.Mean,
		"std_dev":                  vs.StdDev,
		"coefficient_of_variation": vs.CoV,
	}

	switch {
	case vs.CoV > rules.HighCoV:
		card.penalize(rules.HighPenalty,
			fmt.Sprintf("Velocity varies by %.0f%% between sprints", vs.CoV),
			"Stabilise team capacity and estimation before using velocity for forecasts")
		observations = append(observations, types.Observation{
			Category:      types.CategoryTeamVelocity,
			Severity:      types.SeverityHigh,
			Title:         "Velocity is highly variable",
			Description:   fmt.Sprintf("Velocity has a coefficient of variation of %.1f%% across %d sprints, which makes release forecasting unreliable.", vs.CoV, len(velocities)),
			DataSource:    types.SourceJira,
			DataEvidence:  evidence,
			AffectedAreas: []string{"Forecasting", "Release Planning", "Capacity Planning"},
		})
	case vs.CoV > rules.ModerateCoV:
		card.penalize(rules.ModeratePenalty,
			fmt.Sprintf("Velocity varies by %.0f%% between sprints", vs.CoV),
			"Review estimation consistency and unplanned work")
		observations = append(observations, types.Observation{
			Category:      types.CategoryTeamVelocity,
			Severity:      types.SeverityMedium,
			Title:         "Velocity shows moderate variability",
			Description:   fmt.Sprintf("Velocity has a coefficient of variation of %.1f%% across %d sprints.", vs.CoV, len(velocities)),
			DataSource:    types.SourceJira,
			DataEvidence:  evidence,
			AffectedAreas: []string{"Forecasting", "Capacity Planning"},
		})
	default:
		card.reward(rules.StableReward, fmt.Sprintf("Velocity is stable (%.0f%% variation)", vs.CoV))
	}

	assessment := card.assessment(types.AssessmentJiraAnalysis, CategoryVelocity, map[string]any{
		"sprint_count":  len(velocities),
		"mean_velocity": vs.Mean,
		"analyzed_at":   now,
	})
	return stageResult{observations: observations, assessment: &assessment}
}
