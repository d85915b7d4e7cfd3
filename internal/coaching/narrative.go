package coaching

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/atlas-maximus/internal/llm"
	"github.com/jonathan/atlas-maximus/internal/prompts"
	"github.com/jonathan/atlas-maximus/internal/types"
)

const (
	narrativePromptFile = "coaching.json"
	narrativePromptKey  = "coaching-narrative"
	// maxNarrativeRunes bounds the generated narrative stored with an insight.
	maxNarrativeRunes = 4000
)

// Narrator turns a coaching insight into a short prose briefing.
type Narrator struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewNarrator creates a narrator backed by an LLM client.
func NewNarrator(client llm.Client) *Narrator {
	return &Narrator{client: client, tier: llm.TierStandard}
}

// Narrate generates the briefing. The insight itself is not modified.
func (n *Narrator) Narrate(ctx context.Context, insight types.CoachingInsight) (string, error) {
	prompt, err := BuildNarrativePrompt(insight)
	if err != nil {
		return "", err
	}

	text, err := n.client.GenerateContent(ctx, prompt, n.tier)
	if err != nil {
		return "", fmt.Errorf("failed to generate coaching narrative: %w", err)
	}
	return llm.TruncateText(strings.TrimSpace(text), maxNarrativeRunes), nil
}

// BuildNarrativePrompt renders the narrative prompt for an insight.
func BuildNarrativePrompt(insight types.CoachingInsight) (string, error) {
	var assessments, observations, interventions strings.Builder

	for _, a := range insight.Assessments {
		fmt.Fprintf(&assessments, "- %s: %.0f/100 (%s)\n", a.Category, a.CurrentScore, a.MaturityLevel)
	}
	for _, o := range insight.Observations {
		fmt.Fprintf(&observations, "- [%s] %s: %s\n", o.Severity, o.Title, o.Description)
	}
	for _, iv := range insight.Interventions {
		fmt.Fprintf(&interventions, "- %s (priority %s, impact %s, effort %s)\n", iv.Title, iv.Priority, iv.EstimatedImpact, iv.EstimatedEffort)
	}

	focus := "none identified"
	if len(insight.FocusAreas) > 0 {
		focus = strings.Join(insight.FocusAreas, ", ")
	}

	return prompts.Render(narrativePromptFile, narrativePromptKey, map[string]string{
		"Maturity":      string(insight.OverallMaturity),
		"FocusAreas":    focus,
		"Assessments":   orNone(assessments.String()),
		"Observations":  orNone(observations.String()),
		"Interventions": orNone(interventions.String()),
	})
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "- none\n"
	}
	return s
}
