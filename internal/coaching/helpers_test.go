package coaching

import (
	"fmt"
	"strings"

	"github.com/jonathan/atlas-maximus/internal/types"
)

const wellWrittenStory = "As a team member I want to reset my password so that I can regain access. Acceptance criteria: a reset email is sent within a minute."

func points(v float64) *float64 {
	return &v
}

func issue(key, issueType, description string, storyPoints float64, status, sprint string) types.JiraIssue {
	return types.JiraIssue{
		Key:         key,
		IssueType:   issueType,
		Description: description,
		StoryPoints: points(storyPoints),
		Status:      status,
		Sprint:      sprint,
	}
}

// sprintTasks builds n task issues in a sprint, the first done of which are Done.
func sprintTasks(sprint string, n, done int, pointsEach float64) []types.JiraIssue {
	issues := make([]types.JiraIssue, 0, n)
	for i := 0; i < n; i++ {
		status := "In Progress"
		if i < done {
			status = "Done"
		}
		key := fmt.Sprintf("%s-%d", strings.ReplaceAll(sprint, " ", ""), i+1)
		issues = append(issues, issue(key, "Task", wellWrittenStory, pointsEach, status, sprint))
	}
	return issues
}

func backlog(n int) []types.JiraIssue {
	issues := make([]types.JiraIssue, 0, n)
	for i := 0; i < n; i++ {
		issues = append(issues, issue(fmt.Sprintf("BL-%d", i+1), "Task", wellWrittenStory, 3, "To Do", ""))
	}
	return issues
}

func observationTitles(obs []types.Observation) []string {
	titles := make([]string, 0, len(obs))
	for _, o := range obs {
		titles = append(titles, o.Title)
	}
	return titles
}

func findAssessment(assessments []types.Assessment, category string) *types.Assessment {
	for i := range assessments {
		if assessments[i].Category == category {
			return &assessments[i]
		}
	}
	return nil
}
