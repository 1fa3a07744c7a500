// Package reproduction computes deterministic multi-strategy DOM selectors
// and generates Playwright (and, as a carried bonus format, a plain-English
// "Gasoline" script) reproduction scripts from a captured action sequence
// (§4.6). Grounded directly on the teacher's internal/reproduction/
// reproduction.go, adapted from a server-side selector-map shape to one
// computed live from a hostenv.Element, with the CSS-path/dynamic-class
// strategy added per the spec.
package reproduction

// EnhancedAction is one step of a reproduction sequence, forwarded by the
// action-capture and navigation-capture modules (§4.5).
type EnhancedAction struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	URL       string         `json:"url"`
	Source    string         `json:"source,omitempty"` // "ai" marks AI-driven steps

	// navigate
	FromURL string `json:"fromUrl,omitempty"`
	ToURL   string `json:"toUrl,omitempty"`

	// keypress
	Key string `json:"key,omitempty"`

	// scroll
	ScrollY int `json:"scrollY,omitempty"`

	// input
	Value string `json:"value,omitempty"`

	// select/change
	SelectedText  string `json:"selectedText,omitempty"`
	SelectedValue string `json:"selectedValue,omitempty"`

	// Selectors is the multi-strategy map computed by ComputeSelectors.
	Selectors map[string]any `json:"selectors,omitempty"`
}

// Params are the parsed reproduction-request arguments.
type Params struct {
	OutputFormat string `json:"output_format"`
	LastN        int    `json:"last_n"`
	BaseURL      string `json:"base_url"`
	ErrorMessage string `json:"error_message"`
}

// Result is the response payload for a generated reproduction script.
type Result struct {
	Script      string `json:"script"`
	Format      string `json:"format"`
	ActionCount int    `json:"action_count"`
	DurationMs  int64  `json:"duration_ms"`
	StartURL    string `json:"start_url"`
	Metadata    Meta   `json:"metadata"`
}

// Meta provides traceability for the generated script.
type Meta struct {
	GeneratedAt      string   `json:"generated_at"`
	SelectorsUsed    []string `json:"selectors_used"`
	ActionsAvailable int      `json:"actions_available"`
	ActionsIncluded  int      `json:"actions_included"`
}

const maxReproOutputBytes = 50 * 1024 // §4.6: 50 KiB cap

// ValidateOutputFormat returns an error message if format is invalid, empty
// string if OK.
func ValidateOutputFormat(format string) string {
	if format != "gasoline" && format != "playwright" {
		return "Invalid output_format: " + format
	}
	return ""
}

// FilterLastN returns the last N actions, or all if lastN <= 0.
func FilterLastN(actions []EnhancedAction, lastN int) []EnhancedAction {
	if lastN > 0 && lastN < len(actions) {
		return actions[len(actions)-lastN:]
	}
	return actions
}

func reproStartURL(actions []EnhancedAction, baseURL string) string {
	if len(actions) == 0 {
		return ""
	}
	startURL := actions[0].URL
	if actions[0].Type == "navigate" && actions[0].ToURL != "" {
		startURL = actions[0].ToURL
	}
	if baseURL != "" {
		startURL = RewriteURL(startURL, baseURL)
	}
	return startURL
}
