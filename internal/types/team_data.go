// Package types provides type definitions for structured data used throughout the coaching system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// TeamData is the bundle of raw team records handed to the coaching analyzer.
// Every section is optional; absent sections are skipped by the analyzer.
type TeamData struct {
	JiraIssues          []JiraIssue           `json:"jira_issues,omitempty"`
	Documents           []Document            `json:"documents,omitempty"`
	ConversationHistory []ConversationSession `json:"conversation_history,omitempty"`
	UserProfile         *UserProfile          `json:"user_profile,omitempty"`
}

// JiraIssue is the subset of an issue tracker record the analyzer consumes.
type JiraIssue struct {
	Key         string   `json:"key,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	IssueType   string   `json:"issue_type,omitempty"`
	Description string   `json:"description,omitempty"`
	StoryPoints *float64 `json:"story_points,omitempty"`
	Status      string   `json:"status,omitempty"`
	Sprint      string   `json:"sprint,omitempty"`
}

// Points returns the story point estimate, treating a missing estimate as zero.
func (i JiraIssue) Points() float64 {
	if i.StoryPoints == nil {
		return 0
	}
	return *i.StoryPoints
}

// Document is an uploaded document with its extracted text.
type Document struct {
	OriginalName  string    `json:"original_name"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at,omitzero"`
}

// ConversationSession is one chat session with the assistant.
type ConversationSession struct {
	ID       string    `json:"id,omitempty"`
	Messages []Message `json:"messages"`
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserProfile carries optional caller context. The analyzer does not score it.
type UserProfile struct {
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	TeamName string `json:"team_name,omitempty"`
}
