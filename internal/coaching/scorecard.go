package coaching

import "github.com/jonathan/atlas-maximus/internal/types"

// scorecard accumulates a sub-analysis score and its narrative lists.
type scorecard struct {
	score           float64
	strengths       []string
	weaknesses      []string
	recommendations []string
}

func newScorecard(baseline float64) *scorecard {
	return &scorecard{
		score:           baseline,
		strengths:       []string{},
		weaknesses:      []string{},
		recommendations: []string{},
	}
}

func (s *scorecard) penalize(points float64, weakness, recommendation string) {
	s.score -= points
	s.weaknesses = append(s.weaknesses, weakness)
	if recommendation != "" {
		s.recommendations = append(s.recommendations, recommendation)
	}
}

func (s *scorecard) reward(points float64, strength string) {
	s.score += points
	s.strengths = append(s.strengths, strength)
}

func (s *scorecard) strength(text string) {
	s.strengths = append(s.strengths, text)
}

// assessment finalises the card. The score is clamped before grading.
func (s *scorecard) assessment(kind types.AssessmentType, category string, analyzed map[string]any) types.Assessment {
	score := clampScore(s.score)
	return types.Assessment{
		AssessmentType:  kind,
		Category:        category,
		CurrentScore:    score,
		MaturityLevel:   AssessmentMaturity(score),
		Strengths:       s.strengths,
		Weaknesses:      s.weaknesses,
		Recommendations: s.recommendations,
		DataAnalyzed:    analyzed,
	}
}

// stageResult is the contribution of one sub-analysis.
type stageResult struct {
	observations []types.Observation
	assessment   *types.Assessment
}

// ratio divides guarding against an empty denominator.
func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
