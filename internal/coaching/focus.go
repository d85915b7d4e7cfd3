package coaching

import (
	"sort"

	"github.com/jonathan/atlas-maximus/internal/types"
)

// maxFocusAreas caps the number of focus areas reported.
const maxFocusAreas = 3

// FocusAreaLabels maps observation categories to display labels.
// Categories without a label are reported by their raw name.
var FocusAreaLabels = map[types.ObservationCategory]string{
	types.CategoryStoryAcceptanceCriteria: "User Story Quality",
	types.CategorySprintPlanning:          "Sprint Planning",
	types.CategoryTeamVelocity:            "Velocity Predictability",
	types.CategoryRetrospectiveQuality:    "Retrospective Effectiveness",
	types.CategoryRiskManagement:          "Risk Management",
	types.CategoryContinuousImprovement:   "Continuous Improvement",
}

// FocusAreas returns up to three category labels ranked by observation count.
// Ties keep the order in which categories were first observed.
func FocusAreas(observations []types.Observation) []string {
	groups := groupByCategory(observations)
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Observations) > len(groups[j].Observations)
	})

	areas := make([]string, 0, maxFocusAreas)
	for _, g := range groups {
		if len(areas) == maxFocusAreas {
			break
		}
		label, ok := FocusAreaLabels[g.Category]
		if !ok {
			label = string(g.Category)
		}
		areas = append(areas, label)
	}
	return areas
}
