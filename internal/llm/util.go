// Package llm - util.go provides shared helpers for LLM prompts and responses.
package llm

// TruncateText shortens text to at most maxRunes runes, appending an ellipsis when cut.
func TruncateText(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
