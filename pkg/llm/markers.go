package llm

import "strings"

// ParseBetween extracts the content between two markers in a model reply,
// reporting ok=false when either marker is missing. Model output is never
// trusted to be well-formed.
func ParseBetween(text, startMarker, endMarker string) (string, bool) {
	start := strings.Index(text, startMarker)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(startMarker):]

	end := strings.Index(rest, endMarker)
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}
