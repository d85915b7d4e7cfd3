// Package jira converts Jira search responses and exports into analyzer issues.
package jira

import (
	"regexp"
	"strings"

	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/tidwall/gjson"
)

// storyPointFields are the field paths checked, in order, for a story point estimate.
// Jira Cloud stores points in a site-specific custom field.
var storyPointFields = []string{
	"fields.customfield_10016",
	"fields.story_points",
	"fields.customfield_10028",
	"fields.customfield_10002",
}

// legacySprintName matches the serialized sprint strings older Jira servers return,
// e.g. "com.atlassian.greenhopper.service.sprint.Sprint@1f[id=1,state=CLOSED,name=Sprint 1,...]".
var legacySprintName = regexp.MustCompile(`name=([^,\]]+)`)

// ParseIssues accepts either a Jira search response ({"issues": [...]}) or a flat
// array of issues. Array items carrying a "fields" object are mapped from the Jira
// REST shape; the rest are read as already-mapped issues. Missing fields are left empty.
func ParseIssues(raw []byte) ([]types.JiraIssue, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ParseError{Message: "invalid JSON", Index: -1}
	}

	root := gjson.ParseBytes(raw)
	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.IsObject() && root.Get("issues").IsArray():
		items = root.Get("issues").Array()
	default:
		return nil, &ParseError{Message: `expected an array of issues or an object with an "issues" array`, Index: -1}
	}

	issues := make([]types.JiraIssue, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, &ParseError{Message: "issue must be a JSON object", Index: i}
		}
		if item.Get("fields").IsObject() {
			issues = append(issues, fromREST(item))
		} else {
			issues = append(issues, fromFlat(item))
		}
	}
	return issues, nil
}

func fromREST(item gjson.Result) types.JiraIssue {
	issue := types.JiraIssue{
		Key:         item.Get("key").String(),
		Summary:     item.Get("fields.summary").String(),
		IssueType:   item.Get("fields.issuetype.name").String(),
		Description: description(item.Get("fields.description")),
		Status:      item.Get("fields.status.name").String(),
		Sprint:      sprintName(item),
	}
	for _, path := range storyPointFields {
		if v := item.Get(path); v.Type == gjson.Number {
			points := v.Float()
			issue.StoryPoints = &points
			break
		}
	}
	return issue
}

func fromFlat(item gjson.Result) types.JiraIssue {
	issue := types.JiraIssue{
		Key:         item.Get("key").String(),
		Summary:     item.Get("summary").String(),
		IssueType:   first(item, "issue_type", "issueType", "type"),
		Description: description(item.Get("description")),
		Status:      first(item, "status", "status_name"),
		Sprint:      first(item, "sprint", "sprint_name"),
	}
	for _, path := range []string{"story_points", "storyPoints", "points"} {
		if v := item.Get(path); v.Type == gjson.Number {
			points := v.Float()
			issue.StoryPoints = &points
			break
		}
	}
	return issue
}

// first returns the first non-empty string among paths.
func first(item gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := item.Get(path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// description reads a plain string or flattens an Atlassian Document Format body.
func description(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return v.String()
	case v.IsObject():
		return flattenADF(v)
	default:
		return ""
	}
}

// sprintName prefers fields.sprint.name, then the last entry of the sprint custom field.
func sprintName(item gjson.Result) string {
	if name := item.Get("fields.sprint.name").String(); name != "" {
		return name
	}

	sprints := item.Get("fields.customfield_10020").Array()
	if len(sprints) == 0 {
		return ""
	}
	last := sprints[len(sprints)-1]
	if last.IsObject() {
		return last.Get("name").String()
	}
	if m := legacySprintName.FindStringSubmatch(last.String()); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
