// limits.go — Configuration & limits registry: the single source of truth
// for every bound used elsewhere in the capture core (sizes, depths, buffer
// caps, timeouts, sensitive patterns). Design: Default() builds a fresh
// Limits value on each call, optionally overridden from a YAML file by
// LoadWithOverrides; nothing mutates a Limits value after
// construction, so it is safe to share across every package without a lock.
package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits is the immutable bounds registry consulted by every capture module.
type Limits struct {
	// Serializer (§4.2)
	MaxStringLen int `yaml:"max_string_len"`
	MaxDepth     int `yaml:"max_depth"`
	MaxArrayLen  int `yaml:"max_array_len"`
	MaxObjectKeys int `yaml:"max_object_keys"`

	// Context annotations (§4.7)
	MaxContextKeys     int `yaml:"max_context_keys"`
	MaxContextValueLen int `yaml:"max_context_value_len"` // serialized bytes
	MaxContextKeyLen   int `yaml:"max_context_key_len"`

	// Action capture (§4.5)
	ActionBufferCap         int           `yaml:"action_buffer_cap"`
	EnhancedActionBufferCap int           `yaml:"enhanced_action_buffer_cap"`
	ScrollThrottle          time.Duration `yaml:"scroll_throttle"`
	ClickTextCap            int           `yaml:"click_text_cap"`

	// Network waterfall (§4.8)
	WaterfallCap    int           `yaml:"waterfall_cap"`
	WaterfallWindow time.Duration `yaml:"waterfall_window"`

	// Network body capture (§4.9)
	RequestBodyCap   int           `yaml:"request_body_cap"`
	ResponseBodyCap  int           `yaml:"response_body_cap"`
	BodyReadTimeout  time.Duration `yaml:"body_read_timeout"`

	// WebSocket capture (§4.10)
	WSMaxBody int `yaml:"ws_max_body"`
	WSPreview int `yaml:"ws_preview"`

	// Performance (§4.11)
	PerfEntriesCap int           `yaml:"perf_entries_cap"`
	PerfWindow     time.Duration `yaml:"perf_window"`
	LongTaskCap    int           `yaml:"long_task_cap"`
	INPThreshold   time.Duration `yaml:"inp_threshold"`

	// DOM query caps (out-of-core surfaces, retained for completeness)
	DOMMaxElements int `yaml:"dom_max_elements"`
	DOMMaxTextLen  int `yaml:"dom_max_text_len"`
	DOMMaxDepth    int `yaml:"dom_max_depth"`
	DOMMaxHTMLLen  int `yaml:"dom_max_html_len"`

	// AI enrichment (§4.12)
	AISnippetContextLines int           `yaml:"ai_snippet_context_lines"`
	AISnippetLineCap      int           `yaml:"ai_snippet_line_cap"`
	AISnippetsTotalCap    int           `yaml:"ai_snippets_total_cap"`
	AIAncestryDepth       int           `yaml:"ai_ancestry_depth"`
	AIPropKeysCap         int           `yaml:"ai_prop_keys_cap"`
	AIStateKeysCap        int           `yaml:"ai_state_keys_cap"`
	AIRelevantSliceCap    int           `yaml:"ai_relevant_slice_cap"`
	AIValueCap            int           `yaml:"ai_value_cap"`
	SourceMapCacheCap     int           `yaml:"source_map_cache_cap"`
	AIPipelineTimeout     time.Duration `yaml:"ai_pipeline_timeout"`

	// Sensitive patterns
	SensitiveHeaderRegex *regexp.Regexp `yaml:"-"`
	SensitiveURLRegex    *regexp.Regexp `yaml:"-"`
	SensitiveInputTypes  map[string]bool `yaml:"-"`

	// Clickable/actionable element classifications
	ClickableTags map[string]bool `yaml:"-"`
	ActionableKeys map[string]bool `yaml:"-"`
}

// rawOverrides mirrors the subset of Limits that can be tuned from YAML;
// durations are expressed in milliseconds since yaml.v3 has no native
// time.Duration support.
type rawOverrides struct {
	MaxStringLen            *int `yaml:"max_string_len"`
	MaxDepth                *int `yaml:"max_depth"`
	MaxContextKeys          *int `yaml:"max_context_keys"`
	ActionBufferCap         *int `yaml:"action_buffer_cap"`
	EnhancedActionBufferCap *int `yaml:"enhanced_action_buffer_cap"`
	ScrollThrottleMs        *int `yaml:"scroll_throttle_ms"`
	WaterfallCap            *int `yaml:"waterfall_cap"`
	RequestBodyCap          *int `yaml:"request_body_cap"`
	ResponseBodyCap         *int `yaml:"response_body_cap"`
	BodyReadTimeoutMs       *int `yaml:"body_read_timeout_ms"`
	WSMaxBody               *int `yaml:"ws_max_body"`
	AIPipelineTimeoutMs     *int `yaml:"ai_pipeline_timeout_ms"`
}

// Default builds the canonical, spec-mandated bounds (§4.1).
func Default() *Limits {
	return &Limits{
		MaxStringLen:  10 * 1024,
		MaxDepth:      10,
		MaxArrayLen:   100,
		MaxObjectKeys: 50,

		MaxContextKeys:     50,
		MaxContextValueLen: 4 * 1024,
		MaxContextKeyLen:   100,

		ActionBufferCap:         20,
		EnhancedActionBufferCap: 50,
		ScrollThrottle:          250 * time.Millisecond,
		ClickTextCap:            50,

		WaterfallCap:    50,
		WaterfallWindow: 30 * time.Second,

		RequestBodyCap:  8 * 1024,
		ResponseBodyCap: 16 * 1024,
		BodyReadTimeout: 5 * time.Millisecond,

		WSMaxBody: 4 * 1024,
		WSPreview: 200,

		PerfEntriesCap: 50,
		PerfWindow:     60 * time.Second,
		LongTaskCap:    50,
		INPThreshold:   40 * time.Millisecond,

		DOMMaxElements: 50,
		DOMMaxTextLen:  500,
		DOMMaxDepth:    5,
		DOMMaxHTMLLen:  200,

		AISnippetContextLines: 5,
		AISnippetLineCap:      200,
		AISnippetsTotalCap:    10 * 1024,
		AIAncestryDepth:       10,
		AIPropKeysCap:         20,
		AIStateKeysCap:        10,
		AIRelevantSliceCap:    10,
		AIValueCap:            200,
		SourceMapCacheCap:     20,
		AIPipelineTimeout:     3 * time.Second,

		SensitiveHeaderRegex: regexp.MustCompile(`(?i)^(authorization|cookie|set-cookie|x-api-key|x-auth-token|proxy-authorization)$`),
		SensitiveURLRegex:    regexp.MustCompile(`(?i)/(auth|login|signin|signup|token|oauth|session|api[_-]?key|password|register)(/|$|\?)`),
		SensitiveInputTypes: map[string]bool{
			"password": true,
		},

		ClickableTags: map[string]bool{
			"BUTTON":  true,
			"A":       true,
			"SUMMARY": true,
		},
		ActionableKeys: map[string]bool{
			"Enter": true, "Escape": true, "Tab": true,
			"ArrowUp": true, "ArrowDown": true, "ArrowLeft": true, "ArrowRight": true,
			"Backspace": true, "Delete": true,
		},
	}
}

// LoadWithOverrides builds the default registry and applies an optional YAML
// override file. A missing or unreadable file, or invalid YAML, is not an
// error: the defaults are returned unchanged, matching the redaction
// engine's best-effort config loading.
func LoadWithOverrides(path string) *Limits {
	l := Default()
	if path == "" {
		return l
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is from trusted config location
	if err != nil {
		return l
	}
	var raw rawOverrides
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return l
	}
	applyOverrides(l, &raw)
	return l
}

func applyOverrides(l *Limits, raw *rawOverrides) {
	setInt(&l.MaxStringLen, raw.MaxStringLen)
	setInt(&l.MaxDepth, raw.MaxDepth)
	setInt(&l.MaxContextKeys, raw.MaxContextKeys)
	setInt(&l.ActionBufferCap, raw.ActionBufferCap)
	setInt(&l.EnhancedActionBufferCap, raw.EnhancedActionBufferCap)
	setInt(&l.WaterfallCap, raw.WaterfallCap)
	setInt(&l.RequestBodyCap, raw.RequestBodyCap)
	setInt(&l.ResponseBodyCap, raw.ResponseBodyCap)
	setInt(&l.WSMaxBody, raw.WSMaxBody)
	setDurationMs(&l.ScrollThrottle, raw.ScrollThrottleMs)
	setDurationMs(&l.BodyReadTimeout, raw.BodyReadTimeoutMs)
	setDurationMs(&l.AIPipelineTimeout, raw.AIPipelineTimeoutMs)
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDurationMs(dst *time.Duration, srcMs *int) {
	if srcMs != nil {
		*dst = time.Duration(*srcMs) * time.Millisecond
	}
}
