package coaching

import "github.com/jonathan/atlas-maximus/internal/types"

// InterventionTemplate is the fixed remediation content for one observation category.
type InterventionTemplate struct {
	Title           string
	Description     string
	ActionItems     []types.ActionItem
	Priority        types.Priority
	EstimatedImpact types.Impact
	EstimatedEffort types.Effort
}

// InterventionTemplates maps observation categories to remediation content.
// Categories missing from the table produce no intervention.
var InterventionTemplates = map[types.ObservationCategory]InterventionTemplate{
	types.CategoryStoryAcceptanceCriteria: {
		Title:       "Acceptance Criteria Workshop",
		Description: "Run a working session with the product owner and team to agree how stories are written and when they are ready for a sprint.",
		ActionItems: []types.ActionItem{
			{
				Title:       "Agree a story template",
				Description: "Adopt a shared template covering user, need, value and acceptance criteria.",
				Resources:   []string{"INVEST checklist", "Given/When/Then examples"},
			},
			{
				Title:       "Introduce a Definition of Ready",
				Description: "Stories without acceptance criteria do not enter sprint planning.",
			},
			{
				Title:       "Pair on refinement",
				Description: "Refine the next sprint's top stories together and rewrite weak criteria on the spot.",
			},
		},
		Priority:        types.PriorityHigh,
		EstimatedImpact: types.ImpactHigh,
		EstimatedEffort: types.EffortMedium,
	},
	types.CategorySprintPlanning: {
		Title:       "Sprint Planning Reset",
		Description: "Rebuild sprint commitments around demonstrated capacity and consistently estimated work.",
		ActionItems: []types.ActionItem{
			{
				Title:       "Plan to yesterday's weather",
				Description: "Cap commitments at the average completed points of the last three sprints.",
			},
			{
				Title:       "Estimate everything that enters a sprint",
				Description: "Unestimated items are refined and pointed before they are pulled in.",
			},
			{
				Title:       "Review carry-over at each planning",
				Description: "Re-plan or split items that did not finish instead of rolling them forward.",
			},
		},
		Priority:        types.PriorityHigh,
		EstimatedImpact: types.ImpactHigh,
		EstimatedEffort: types.EffortMedium,
	},
	types.CategoryRetrospectiveQuality: {
		Title:       "Revitalize Retrospective Practice",
		Description: "Make retrospectives produce owned improvements and revisit them every sprint.",
		ActionItems: []types.ActionItem{
			{
				Title:       "Rotate retrospective formats",
				Description: "Use a different structured format each sprint to keep discussion fresh.",
				Resources:   []string{"Retromat", "Start/Stop/Continue", "4Ls"},
			},
			{
				Title:       "Record owned action items",
				Description: "End each retrospective with at most three action items, each with an owner and due date.",
			},
			{
				Title:       "Review previous actions first",
				Description: "Open every retrospective by checking the status of the last sprint's actions.",
			},
		},
		Priority:        types.PriorityHigh,
		EstimatedImpact: types.ImpactTransformative,
		EstimatedEffort: types.EffortLow,
	},
	types.CategoryTeamVelocity: {
		Title:       "Stabilize Velocity",
		Description: "Reduce sprint-to-sprint variation so velocity becomes a usable forecasting signal.",
		ActionItems: []types.ActionItem{
			{
				Title:       "Track unplanned work",
				Description: "Label interrupts and unplanned work to see how much capacity they consume.",
			},
			{
				Title:       "Calibrate estimates",
				Description: "Compare a sample of finished stories against their estimates in refinement.",
			},
			{
				Title:       "Limit work in progress",
				Description: "Set a WIP limit for in-progress items and finish before starting new work.",
			},
		},
		Priority:        types.PriorityMedium,
		EstimatedImpact: types.ImpactHigh,
		EstimatedEffort: types.EffortMedium,
	},
	types.CategoryRiskManagement: {
		Title:       "Proactive Risk Management",
		Description: "Surface risks, blockers and dependencies during planning rather than mid-sprint.",
		ActionItems: []types.ActionItem{
			{
				Title:       "Add a risk review to planning",
				Description: "Spend a fixed slot of every planning session listing risks and dependencies.",
				Resources:   []string{"ROAM board"},
			},
			{
				Title:       "Keep a visible risk register",
				Description: "Track each risk with an owner and mitigation on the team board.",
			},
		},
		Priority:        types.PriorityMedium,
		EstimatedImpact: types.ImpactMedium,
		EstimatedEffort: types.EffortLow,
	},
}

// InterventionFor returns the intervention for a category and whether one is defined.
func InterventionFor(category types.ObservationCategory, observationIDs []string) (types.Intervention, bool) {
	tmpl, ok := InterventionTemplates[category]
	if !ok {
		return types.Intervention{}, false
	}
	items := make([]types.ActionItem, len(tmpl.ActionItems))
	copy(items, tmpl.ActionItems)
	return types.Intervention{
		Category:        category,
		ObservationIDs:  observationIDs,
		Title:           tmpl.Title,
		Description:     tmpl.Description,
		ActionItems:     items,
		Priority:        tmpl.Priority,
		EstimatedImpact: tmpl.EstimatedImpact,
		EstimatedEffort: tmpl.EstimatedEffort,
	}, true
}

// categoryGroup is the observations of one category in input order.
type categoryGroup struct {
	Category     types.ObservationCategory
	Observations []types.Observation
}

// groupByCategory groups observations by category in first-seen order.
func groupByCategory(observations []types.Observation) []categoryGroup {
	index := make(map[types.ObservationCategory]int)
	var groups []categoryGroup
	for _, o := range observations {
		i, ok := index[o.Category]
		if !ok {
			i = len(groups)
			index[o.Category] = i
			groups = append(groups, categoryGroup{Category: o.Category})
		}
		groups[i].Observations = append(groups[i].Observations, o)
	}
	return groups
}

// GenerateInterventions emits one intervention per observation category that has a template.
func GenerateInterventions(observations []types.Observation) []types.Intervention {
	interventions := make([]types.Intervention, 0)
	for _, g := range groupByCategory(observations) {
		ids := make([]string, 0, len(g.Observations))
		for _, o := range g.Observations {
			ids = append(ids, o.Title)
		}
		if iv, ok := InterventionFor(g.Category, ids); ok {
			interventions = append(interventions, iv)
		}
	}
	return interventions
}
