package ai

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Context is the fully assembled AI enrichment payload, the pipeline's
// final _aiContext value.
type Context struct {
	Summary     string          `json:"summary"`
	Frames      []Frame         `json:"frames,omitempty"`
	Snippets    []Snippet       `json:"snippets,omitempty"`
	Framework   string          `json:"framework,omitempty"`
	Ancestry    []ComponentInfo `json:"ancestry,omitempty"`
	State       *StateSnapshot  `json:"state,omitempty"`
}

// GenerateAISummary builds the template string combining error type +
// location, a component path, and a compact relevant-slice listing. The
// error type is derived by splitting errorMessage on its first colon
// ("TypeError: x is not a function" -> type "TypeError") — messages with
// additional colons still only split once, so the "type" can come out
// truncated; this mirrors the spec's documented behavior rather than
// attempting smarter message parsing.
func GenerateAISummary(errorMessage string, frames []Frame, ancestry []ComponentInfo, state *StateSnapshot) string {
	var b strings.Builder
	errType, rest := splitErrorType(errorMessage)
	b.WriteString(errType)
	if rest != "" {
		b.WriteString(": ")
		b.WriteString(rest)
	}
	if len(frames) > 0 {
		fmt.Fprintf(&b, " at %s:%d:%d", frames[0].Filename, frames[0].Line, frames[0].Column)
	}
	if len(ancestry) > 0 {
		names := make([]string, len(ancestry))
		for i, c := range ancestry {
			names[i] = c.Name
		}
		b.WriteString(" in ")
		b.WriteString(strings.Join(names, " > "))
	}
	if state != nil && len(state.RelevantSlice) > 0 {
		b.WriteString(" [")
		b.WriteString(compactSlice(state.RelevantSlice))
		b.WriteString("]")
	}
	return b.String()
}

func splitErrorType(errorMessage string) (errType, rest string) {
	idx := strings.Index(errorMessage, ":")
	if idx < 0 {
		return errorMessage, ""
	}
	return strings.TrimSpace(errorMessage[:idx]), strings.TrimSpace(errorMessage[idx+1:])
}

func compactSlice(slice map[string]string) string {
	keys := make([]string, 0, len(slice))
	for k := range slice {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		encoded, err := json.Marshal(slice[k])
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, encoded))
	}
	return strings.Join(parts, ", ")
}
