package jira

import "fmt"

// ParseError reports malformed Jira JSON. Index is the position of the offending
// issue, or -1 when the payload as a whole is rejected.
type ParseError struct {
	Message string
	Index   int
	Cause   error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Index >= 0 {
		msg = fmt.Sprintf("issue %d: %s", e.Index, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("jira parse error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("jira parse error: %s", msg)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
