package coaching

import (
	"fmt"

	"github.com/jonathan/atlas-maximus/internal/types"
)

// RepeatedQuestion is a normalized user question and how often it was asked.
type RepeatedQuestion struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// repeatedQuestions counts normalized user messages across sessions and
// returns those asked at least threshold times, in first-seen order.
func repeatedQuestions(sessions []types.ConversationSession, threshold int) ([]RepeatedQuestion, int) {
	counts := make(map[string]int)
	var order []string
	total := 0
	for _, session := range sessions {
		for _, msg := range session.Messages {
			if msg.Role != types.RoleUser {
				continue
			}
			q := normalizeQuestion(msg.Content)
			if q == "" {
				continue
			}
			total++
			if counts[q] == 0 {
				order = append(order, q)
			}
			counts[q]++
		}
	}

	var repeated []RepeatedQuestion
	for _, q := range order {
		if counts[q] >= threshold {
			repeated = append(repeated, RepeatedQuestion{Question: q, Count: counts[q]})
		}
	}
	return repeated, total
}

// analyzeConversations flags topics the team keeps coming back to. It emits
// no assessment.
func (a *Analyzer) analyzeConversations(sessions []types.ConversationSession) stageResult {
	repeated, total := repeatedQuestions(sessions, a.rules.Conversation.RepeatThreshold)
	if len(repeated) == 0 {
		return stageResult{}
	}

	return stageResult{observations: []types.Observation{{
		Category:    types.CategoryContinuousImprovement,
		Severity:    types.SeverityMedium,
		Title:       "Topics being revisited repeatedly",
		Description: fmt.Sprintf("%d questions were asked %d or more times, which suggests guidance is not being retained or applied.", len(repeated), a.rules.Conversation.RepeatThreshold),
		DataSource:  types.SourceConversation,
		DataEvidence: map[string]any{
			"repeated_questions":  repeated,
			"total_user_messages": total,
			"session_count":       len(sessions),
		},
		AffectedAreas: []string{"Knowledge Sharing", "Continuous Improvement"},
	}}}
}
