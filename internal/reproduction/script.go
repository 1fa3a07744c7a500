package reproduction

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// GenerateScript dispatches to the correct format generator.
func GenerateScript(actions []EnhancedAction, params Params) string {
	switch params.OutputFormat {
	case "gasoline":
		return GenerateGasolineScript(actions, params)
	default:
		return GeneratePlaywrightScript(actions, params)
	}
}

// BuildResult assembles the response payload from a generated script.
func BuildResult(clock hostenv.Clock, script string, params Params, actions, allActions []EnhancedAction) Result {
	startURL := reproStartURL(actions, params.BaseURL)
	var durationMs int64
	if len(actions) > 1 {
		durationMs = actions[len(actions)-1].Timestamp - actions[0].Timestamp
	}
	return Result{
		Script:      script,
		Format:      params.OutputFormat,
		ActionCount: len(actions),
		DurationMs:  durationMs,
		StartURL:    startURL,
		Metadata: Meta{
			GeneratedAt:      clock.Now().UTC().Format(time.RFC3339),
			SelectorsUsed:    collectSelectorTypes(actions),
			ActionsAvailable: len(allActions),
			ActionsIncluded:  len(actions),
		},
	}
}

// ============================================
// Playwright format
// ============================================

// GeneratePlaywrightScript converts actions to a Playwright test script,
// truncated at 50 KiB (§4.6).
func GeneratePlaywrightScript(actions []EnhancedAction, opts Params) string {
	if len(actions) == 0 {
		return "// No actions captured\n"
	}
	actions = FilterLastN(actions, opts.LastN)

	var b strings.Builder
	writePlaywrightHeader(&b, opts)
	writePlaywrightSteps(&b, actions, opts)
	writePlaywrightFooter(&b, opts)

	script := b.String()
	if len(script) > maxReproOutputBytes {
		script = script[:maxReproOutputBytes]
	}
	return script
}

func writePlaywrightHeader(b *strings.Builder, opts Params) {
	b.WriteString("import { test, expect } from '@playwright/test';\n\n")
	testName := "reproduction: captured user actions"
	if opts.ErrorMessage != "" {
		testName = "reproduction: " + ChopString(opts.ErrorMessage, 80)
	}
	fmt.Fprintf(b, "test('%s', async ({ page }) => {\n", EscapeJS(testName))
}

func writePlaywrightSteps(b *strings.Builder, actions []EnhancedAction, opts Params) {
	prevTs := actions[0].Timestamp
	for _, action := range actions {
		WritePauseComment(b, prevTs, action.Timestamp, "  // [%ds pause]\n")
		prevTs = action.Timestamp
		if line := PlaywrightStep(action, opts); line != "" {
			b.WriteString("  " + line + "\n")
		}
	}
}

func writePlaywrightFooter(b *strings.Builder, opts Params) {
	if opts.ErrorMessage != "" {
		fmt.Fprintf(b, "  // Error: %s\n", opts.ErrorMessage)
	}
	b.WriteString("});\n")
}

// PlaywrightStep converts a single action to a Playwright code line.
func PlaywrightStep(action EnhancedAction, opts Params) string {
	switch action.Type {
	case "navigate":
		return pwNavigateStep(action, opts)
	case "click":
		return pwLocatorAction(action, "click", "click")
	case "input":
		return pwInputStep(action)
	case "select":
		return pwSelectStep(action)
	case "keypress":
		return fmt.Sprintf("await page.keyboard.press('%s');", EscapeJS(action.Key))
	case "scroll":
		return fmt.Sprintf("// Scroll to y=%d", action.ScrollY)
	case "scroll_element":
		return pwLocatorAction(action, "scrollIntoViewIfNeeded", "scroll element into view")
	case "refresh":
		return "await page.reload();"
	case "back":
		return "await page.goBack();"
	case "forward":
		return "await page.goForward();"
	case "new_tab":
		return pwNewTabStep(action, opts)
	case "focus":
		return pwLocatorAction(action, "focus", "focus")
	default:
		return ""
	}
}

func pwNavigateStep(action EnhancedAction, opts Params) string {
	toURL := action.ToURL
	if toURL == "" {
		return ""
	}
	if opts.BaseURL != "" {
		toURL = RewriteURL(toURL, opts.BaseURL)
	}
	return fmt.Sprintf("await page.goto('%s');", EscapeJS(toURL))
}

func pwNewTabStep(action EnhancedAction, opts Params) string {
	targetURL := action.URL
	if targetURL == "" {
		return "// Open new tab"
	}
	if opts.BaseURL != "" {
		targetURL = RewriteURL(targetURL, opts.BaseURL)
	}
	return fmt.Sprintf("// Open new tab: %s", EscapeJS(targetURL))
}

func pwLocatorAction(action EnhancedAction, actionName, fallbackLabel string) string {
	loc := PlaywrightLocator(action.Selectors)
	if loc == "" {
		return fmt.Sprintf("// %s - no selector available", fallbackLabel)
	}
	return fmt.Sprintf("await page.%s.%s();", loc, actionName)
}

func pwInputStep(action EnhancedAction) string {
	loc := PlaywrightLocator(action.Selectors)
	if loc == "" {
		return "// input - no selector available"
	}
	value := action.Value
	if value == "[redacted]" {
		value = "[user-provided]"
	}
	return fmt.Sprintf("await page.%s.fill('%s');", loc, EscapeJS(value))
}

func pwSelectStep(action EnhancedAction) string {
	loc := PlaywrightLocator(action.Selectors)
	if loc == "" {
		return "// select - no selector available"
	}
	return fmt.Sprintf("await page.%s.selectOption('%s');", loc, EscapeJS(action.SelectedValue))
}

// ============================================
// Gasoline (natural language) format — carried bonus format; not required
// by the spec but cheap to keep alongside Playwright generation since both
// share the same selector-description helpers.
// ============================================

// GenerateGasolineScript converts actions to numbered human-readable steps.
func GenerateGasolineScript(actions []EnhancedAction, opts Params) string {
	if len(actions) == 0 {
		return "# No actions captured\n"
	}
	actions = FilterLastN(actions, opts.LastN)

	var b strings.Builder
	writeGasolineHeader(&b, actions, opts)
	writeGasolineSteps(&b, actions, opts)

	if opts.ErrorMessage != "" {
		fmt.Fprintf(&b, "\n# Error: %s\n", opts.ErrorMessage)
	}
	script := b.String()
	if len(script) > maxReproOutputBytes {
		script = script[:maxReproOutputBytes]
	}
	return script
}

func writeGasolineHeader(b *strings.Builder, actions []EnhancedAction, opts Params) {
	startURL := reproStartURL(actions, opts.BaseURL)
	desc := "captured user actions"
	if opts.ErrorMessage != "" {
		desc = ChopString(opts.ErrorMessage, 80)
	}
	fmt.Fprintf(b, "# Reproduction: %s\n", desc)
	fmt.Fprintf(b, "# %d actions | %s\n\n", len(actions), startURL)
}

func writeGasolineSteps(b *strings.Builder, actions []EnhancedAction, opts Params) {
	stepNum := 0
	prevTs := actions[0].Timestamp
	for _, action := range actions {
		WritePauseComment(b, prevTs, action.Timestamp, "   [%ds pause]\n")
		prevTs = action.Timestamp

		line := GasolineStep(action, opts)
		if line == "" {
			continue
		}
		stepNum++
		prefix := ""
		if action.Source == "ai" {
			prefix = "(AI) "
		}
		fmt.Fprintf(b, "%d. %s%s\n", stepNum, prefix, line)
	}
}

// WritePauseComment writes a timing pause comment if the gap exceeds 2s.
func WritePauseComment(b *strings.Builder, prevTs, curTs int64, format string) {
	if curTs-prevTs > 2000 {
		fmt.Fprintf(b, format, (curTs-prevTs)/1000)
	}
}

// GasolineStep converts a single action to a natural language step.
func GasolineStep(action EnhancedAction, opts Params) string {
	switch action.Type {
	case "navigate":
		return gasolineNavigateStep(action, opts)
	case "click":
		return "Click: " + DescribeElement(action)
	case "input":
		return gasolineInputStep(action)
	case "select":
		return gasolineSelectStep(action)
	case "keypress":
		return "Press: " + action.Key
	case "scroll":
		return fmt.Sprintf("Scroll to: y=%d", action.ScrollY)
	case "scroll_element":
		return "Scroll to element: " + DescribeElement(action)
	case "refresh":
		return "Refresh page"
	case "back":
		return "Navigate back"
	case "forward":
		return "Navigate forward"
	case "new_tab":
		return gasolineNewTabStep(action, opts)
	case "focus":
		return "Focus: " + DescribeElement(action)
	default:
		return ""
	}
}

func gasolineNavigateStep(action EnhancedAction, opts Params) string {
	if action.ToURL == "" {
		return ""
	}
	toURL := action.ToURL
	if opts.BaseURL != "" {
		toURL = RewriteURL(toURL, opts.BaseURL)
	}
	return "Navigate to: " + toURL
}

func gasolineNewTabStep(action EnhancedAction, opts Params) string {
	targetURL := action.URL
	if targetURL == "" {
		return "Open new tab"
	}
	if opts.BaseURL != "" {
		targetURL = RewriteURL(targetURL, opts.BaseURL)
	}
	return "Open new tab: " + targetURL
}

func gasolineInputStep(action EnhancedAction) string {
	value := action.Value
	if value == "[redacted]" {
		value = "[user-provided]"
	}
	return fmt.Sprintf("Type %q into: %s", value, DescribeElement(action))
}

func gasolineSelectStep(action EnhancedAction) string {
	text := action.SelectedText
	if text == "" {
		text = action.SelectedValue
	}
	return fmt.Sprintf("Select %q from: %s", text, DescribeElement(action))
}

// ============================================
// Selector description helpers
// ============================================

// DescribeElement returns the most human-readable description of the
// target element, following the same priority as PlaywrightLocator:
// testId(1) > aria-label(2) > role+name(3) > id(4) > text(5) > cssPath(6).
func DescribeElement(action EnhancedAction) string {
	s := action.Selectors
	if s == nil {
		return "(unknown element)"
	}
	testID := selectorStr(s, "testId")
	ariaLabel := selectorStr(s, "ariaLabel")
	id := selectorStr(s, "id")
	text := selectorStr(s, "text")
	cssPath := selectorStr(s, "cssPath")
	role, roleName := selectorRole(s)

	if testID != "" {
		return fmt.Sprintf("[data-testid=%q]", testID)
	}
	if ariaLabel != "" {
		return fmt.Sprintf("%q", ariaLabel)
	}
	if role != "" {
		name := roleName
		if name == "" {
			name = text
		}
		if name != "" {
			return fmt.Sprintf("%q %s", name, role)
		}
	}
	switch {
	case id != "":
		return "#" + id
	case text != "":
		return fmt.Sprintf("%q", text)
	case cssPath != "":
		return cssPath
	default:
		return "(unknown element)"
	}
}

// PlaywrightLocator returns the best Playwright locator string for a
// selector map. Priority: testId(1) > aria-label(2) > role+name(3) > id(4)
// > text(5) > cssPath(6) (§4.6).
func PlaywrightLocator(selectors map[string]any) string {
	if selectors == nil {
		return ""
	}
	if testID := selectorStr(selectors, "testId"); testID != "" {
		return fmt.Sprintf("getByTestId('%s')", EscapeJS(testID))
	}
	if ariaLabel := selectorStr(selectors, "ariaLabel"); ariaLabel != "" {
		return fmt.Sprintf("getByLabel('%s')", EscapeJS(ariaLabel))
	}
	if role, name := selectorRole(selectors); role != "" {
		return pwRoleLocator(role, name)
	}
	if id := selectorStr(selectors, "id"); id != "" {
		return fmt.Sprintf("locator('#%s')", EscapeJS(id))
	}
	if text := selectorStr(selectors, "text"); text != "" {
		return fmt.Sprintf("getByText('%s')", EscapeJS(text))
	}
	if cssPath := selectorStr(selectors, "cssPath"); cssPath != "" {
		return fmt.Sprintf("locator('%s')", EscapeJS(cssPath))
	}
	return ""
}

func pwRoleLocator(role, roleName string) string {
	if roleName != "" {
		return fmt.Sprintf("getByRole('%s', { name: '%s' })", EscapeJS(role), EscapeJS(roleName))
	}
	return fmt.Sprintf("getByRole('%s')", EscapeJS(role))
}

func selectorStr(selectors map[string]any, key string) string {
	v, _ := selectors[key].(string)
	return v
}

func selectorRole(selectors map[string]any) (role, name string) {
	roleMap, ok := selectors["role"].(map[string]any)
	if !ok {
		return "", ""
	}
	role, _ = roleMap["role"].(string)
	name, _ = roleMap["name"].(string)
	return role, name
}

// ============================================
// Utility helpers
// ============================================

// EscapeJS escapes a string for embedding in JavaScript/TypeScript string
// literals (backticks are escaped as well).
func EscapeJS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "`", "\\`")
	return s
}

// RewriteURL replaces the origin of a URL with baseURL, preserving path.
func RewriteURL(originalURL, baseURL string) string {
	parsed, err := url.Parse(originalURL)
	if err != nil {
		return originalURL
	}
	return strings.TrimRight(baseURL, "/") + parsed.Path
}

// ChopString truncates s to maxLen characters.
func ChopString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

// collectSelectorTypes returns the unique selector types present across
// actions' computed selector maps.
func collectSelectorTypes(actions []EnhancedAction) []string {
	types := make(map[string]bool)
	for _, a := range actions {
		for key := range a.Selectors {
			types[key] = true
		}
	}
	var result []string
	for t := range types {
		result = append(result, t)
	}
	return result
}
