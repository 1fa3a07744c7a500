package ai

import (
	"sort"
	"strconv"
	"strings"
)

const relevantSliceCap = 10
const valueCap = 200

var relevantSubKeyTokens = []string{"error", "loading", "status", "failed"}

// StateSource exposes a Redux-shaped store from a well-known window slot.
// Implementations return false when no store is mounted.
type StateSource interface {
	ReduxState() (map[string]any, bool)
}

// StateSnapshot is the captured view of a Redux-shaped store. Relevant-slice
// values are truncated, not redacted.
type StateSnapshot struct {
	Source        string                `json:"source"`
	Keys          map[string]TypeTag    `json:"keys"`
	RelevantSlice map[string]string     `json:"relevantSlice"`
}

// TypeTag is the {type} shape recorded for each top-level state key.
type TypeTag struct {
	Type string `json:"type"`
}

// CaptureStateSnapshot reads the store and builds a StateSnapshot, scanning
// top-level object-valued slices for entries relevant either by sub-key
// token or by a word match against errorMessage.
func CaptureStateSnapshot(src StateSource, errorMessage string) (StateSnapshot, bool) {
	state, ok := src.ReduxState()
	if !ok {
		return StateSnapshot{}, false
	}

	keys := make(map[string]TypeTag, len(state))
	for k, v := range state {
		keys[k] = TypeTag{Type: typeTag(v)}
	}

	words := errorWords(errorMessage)
	relevant := make(map[string]string)
	for topKey, topVal := range state {
		sub, ok := topVal.(map[string]any)
		if !ok {
			continue
		}
		topMatches := words[strings.ToLower(topKey)]
		added := 0
		subKeysSorted := sortedKeys(sub)
		for _, subKey := range subKeysSorted {
			if added >= relevantSliceCap {
				break
			}
			if !topMatches && !subKeyMatchesToken(subKey) {
				continue
			}
			relevant[topKey+"."+subKey] = truncate(stringify(sub[subKey]), valueCap)
			added++
		}
	}

	return StateSnapshot{Source: "redux", Keys: keys, RelevantSlice: relevant}, true
}

func typeTag(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case map[string]any:
		return "object"
	default:
		return "object"
	}
}

func subKeyMatchesToken(subKey string) bool {
	lower := strings.ToLower(subKey)
	for _, tok := range relevantSubKeyTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// errorWords returns the lowercased words (length > 2) of errorMessage as
// a set, used for matching top-level state keys against the error text.
func errorWords(errorMessage string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(errorMessage), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}) {
		if len(w) > 2 {
			out[w] = true
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
