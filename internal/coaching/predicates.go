package coaching

import (
	"strings"

	"github.com/jonathan/atlas-maximus/internal/types"
)

// Keyword tables for the substring heuristics. All matching is case-insensitive.
var (
	storyIssueTypes         = []string{"story", "user story"}
	doneStatuses            = []string{"done", "closed"}
	acceptanceCriteriaMarks = []string{"acceptance criteria", "ac:", "done when"}
	retrospectiveMarks      = []string{"retro", "retrospective", "what went well"}
	actionItemMarks         = []string{"action item", "action:", "todo"}
	planningMarks           = []string{"planning", "pi planning", "sprint planning"}
	riskMarks               = []string{"risk", "blocker", "dependency"}
)

// containsAny reports whether text contains any of the markers, ignoring case.
func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// equalsAny reports whether the trimmed, lowercased value equals one of the options.
func equalsAny(value string, options []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// IsStory reports whether an issue is a user story.
func IsStory(issue types.JiraIssue) bool {
	return equalsAny(issue.IssueType, storyIssueTypes)
}

// IsDone reports whether an issue is in a completed status.
func IsDone(issue types.JiraIssue) bool {
	return equalsAny(issue.Status, doneStatuses)
}

// IsCarryOver reports whether a sprint-assigned issue is not in the done
// status. Closed issues count as complete for completion rates but still
// count as carried over here.
func IsCarryOver(issue types.JiraIssue) bool {
	return strings.TrimSpace(issue.Sprint) != "" && !equalsAny(issue.Status, []string{"done"})
}

// HasShallowDescription reports whether a description is shorter than minLength characters.
func HasShallowDescription(description string, minLength int) bool {
	return len([]rune(strings.TrimSpace(description))) < minLength
}

// HasAcceptanceCriteria reports whether a description states acceptance criteria.
func HasAcceptanceCriteria(description string) bool {
	return containsAny(description, acceptanceCriteriaMarks)
}

// IsUnpointed reports whether an issue has no story point estimate.
func IsUnpointed(issue types.JiraIssue) bool {
	return issue.StoryPoints == nil || *issue.StoryPoints == 0
}

// IsRetrospectiveDoc reports whether a document looks like retrospective notes.
func IsRetrospectiveDoc(doc types.Document) bool {
	return containsAny(doc.OriginalName, retrospectiveMarks) || containsAny(doc.ExtractedText, retrospectiveMarks)
}

// IsPlanningDoc reports whether a document looks like planning notes.
func IsPlanningDoc(doc types.Document) bool {
	return containsAny(doc.OriginalName, planningMarks) || containsAny(doc.ExtractedText, planningMarks)
}

// MentionsActionItems reports whether text records follow-up actions.
func MentionsActionItems(text string) bool {
	return containsAny(text, actionItemMarks)
}

// MentionsRisks reports whether text identifies risks, blockers or dependencies.
func MentionsRisks(text string) bool {
	return containsAny(text, riskMarks)
}

// normalizeQuestion lowercases and trims a message for duplicate counting.
func normalizeQuestion(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}
