package coaching

import (
	"fmt"
	"time"

	"github.com/jonathan/atlas-maximus/internal/types"
)

// Assessment category names for the document sub-analyses.
const (
	CategoryRetrospectiveQuality = "Retrospective Quality"
	CategoryPlanningQuality      = "Planning Quality"
)

func filterDocuments(docs []types.Document, match func(types.Document) bool) []types.Document {
	var out []types.Document
	for _, d := range docs {
		if match(d) {
			out = append(out, d)
		}
	}
	return out
}

func documentNames(docs []types.Document) []string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.OriginalName)
	}
	return names
}

// analyzeRetrospectives scores retrospective notes for follow-through and depth.
func (a *Analyzer) analyzeRetrospectives(docs []types.Document, now time.Time) stageResult {
	rules := a.rules.Retro

	retros := filterDocuments(docs, IsRetrospectiveDoc)
	if len(retros) == 0 {
		return stageResult{}
	}

	hasActions := false
	short := 0
	for _, d := range retros {
		if MentionsActionItems(d.ExtractedText) {
			hasActions = true
		}
		if len([]rune(d.ExtractedText)) < rules.MinTextLength {
			short++
		}
	}

	card := newScorecard(rules.Baseline)
	var observations []types.Observation

	if !hasActions {
		card.penalize(rules.MissingActionsPenalty,
			"Retrospectives do not record action items",
			"Close every retrospective with owned, time-boxed action items")
		observations = append(observations, types.Observation{
			Category:    types.CategoryRetrospectiveQuality,
			Severity:    types.SeverityCritical,
			Title:       "Retrospectives produce no action items",
			Description: fmt.Sprintf("None of the %d retrospective documents record action items, so insights are not turned into improvements.", len(retros)),
			DataSource:  types.SourceDocument,
			DataEvidence: map[string]any{
				"retrospective_count": len(retros),
				"documents":           documentNames(retros),
			},
			AffectedAreas: []string{"Continuous Improvement", "Team Engagement"},
		})
	} else {
		card.strength("Retrospectives record action items")
	}

	if ratio(short, len(retros)) >= rules.ShallowRatio {
		card.penalize(rules.ShallowPenalty,
			fmt.Sprintf("%d of %d retrospectives are very short", short, len(retros)),
			"Use a structured retrospective format and allow enough time for discussion")
		observations = append(observations, types.Observation{
			Category:    types.CategoryRetrospectiveQuality,
			Severity:    types.SeverityHigh,
			Title:       "Retrospectives appear shallow or rushed",
			Description: fmt.Sprintf("%d of %d retrospective documents contain fewer than %d characters of notes.", short, len(retros), rules.MinTextLength),
			DataSource:  types.SourceDocument,
			DataEvidence: map[string]any{
				"retrospective_count": len(retros),
				"short_count":         short,
			},
			AffectedAreas: []string{"Continuous Improvement", "Psychological Safety"},
		})
	}

	assessment := card.assessment(types.AssessmentDocumentAnalysis, CategoryRetrospectiveQuality, map[string]any{
		"documents_analyzed":  len(docs),
		"retrospective_count": len(retros),
		"analyzed_at":         now,
	})
	return stageResult{observations: observations, assessment: &assessment}
}

// analyzePlanning scores planning documents for risk identification.
func (a *Analyzer) analyzePlanning(docs []types.Document, now time.Time) stageResult {
	rules := a.rules.Planning

	plans := filterDocuments(docs, IsPlanningDoc)
	if len(plans) == 0 {
		return stageResult{}
	}

	mentionsRisk := false
	for _, d := range plans {
		if MentionsRisks(d.ExtractedText) {
			mentionsRisk = true
			break
		}
	}

	card := newScorecard(rules.Baseline)
	var observations []types.Observation

	if !mentionsRisk {
		card.penalize(rules.MissingRiskPenalty,
			"Planning documents do not identify risks or dependencies",
			"Add a risk and dependency review to every planning session")
		observations = append(observations, types.Observation{
			Category:    types.CategoryRiskManagement,
			Severity:    types.SeverityHigh,
			Title:       "No risk identification in planning",
			Description: fmt.Sprintf("None of the %d planning documents mention risks, blockers or dependencies.", len(plans)),
			DataSource:  types.SourceDocument,
			DataEvidence: map[string]any{
				"planning_count": len(plans),
				"documents":      documentNames(plans),
			},
			AffectedAreas: []string{"Risk Management", "Release Planning"},
		})
	} else {
		card.strength("Planning documents identify risks and dependencies")
	}

	assessment := card.assessment(types.AssessmentDocumentAnalysis, CategoryPlanningQuality, map[string]any{
		"documents_analyzed": len(docs),
		"planning_count":     len(plans),
		"analyzed_at":        now,
	})
	return stageResult{observations: observations, assessment: &assessment}
}
