package coaching

import "github.com/jonathan/atlas-maximus/internal/types"

// maturityBand maps a minimum score to a maturity level.
type maturityBand struct {
	Min   float64
	Level types.MaturityLevel
}

// assessmentBands grade a single assessment score.
var assessmentBands = []maturityBand{
	{Min: 85, Level: types.MaturityPerforming},
	{Min: 70, Level: types.MaturityNorming},
	{Min: 50, Level: types.MaturityStorming},
}

// overallBands grade the mean of all assessment scores. They intentionally
// differ from assessmentBands and include the Transforming stage.
var overallBands = []maturityBand{
	{Min: 90, Level: types.MaturityTransforming},
	{Min: 80, Level: types.MaturityPerforming},
	{Min: 65, Level: types.MaturityNorming},
	{Min: 50, Level: types.MaturityStorming},
}

func gradeScore(score float64, bands []maturityBand) types.MaturityLevel {
	for _, b := range bands {
		if score >= b.Min {
			return b.Level
		}
	}
	return types.MaturityForming
}

// AssessmentMaturity grades a single assessment score.
func AssessmentMaturity(score float64) types.MaturityLevel {
	return gradeScore(score, assessmentBands)
}

// OverallMaturity grades the mean score across assessments. No assessments means Forming.
func OverallMaturity(assessments []types.Assessment) types.MaturityLevel {
	if len(assessments) == 0 {
		return types.MaturityForming
	}
	total := 0.0
	for _, a := range assessments {
		total += a.CurrentScore
	}
	return gradeScore(total/float64(len(assessments)), overallBands)
}

// clampScore bounds a score to [0, 100].
func clampScore(score float64) float64 {
	return max(0, min(100, score))
}
