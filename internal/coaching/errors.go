package coaching

import "fmt"

// RulesLoadError represents a failure to load a rule override file.
type RulesLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *RulesLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s %s", e.Message, e.Path)
}

func (e *RulesLoadError) Unwrap() error {
	return e.Cause
}
