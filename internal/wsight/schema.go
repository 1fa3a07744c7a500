package wsight

import "encoding/json"

// parseJSONObject attempts to decode data as a JSON object (not an array or
// scalar). Arrays, scalars, and malformed JSON all return ok=false.
func parseJSONObject(data []byte) (map[string]any, bool) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	trimmed := skipLeadingSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func skipLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return b[i:]
		}
	}
	return b[i:]
}
