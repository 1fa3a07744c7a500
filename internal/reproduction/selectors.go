package reproduction

import (
	"regexp"
	"strings"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

const selectorTextCap = 50

var dynamicClassPattern = regexp.MustCompile(`^(css|sc|emotion|styled|chakra)-|^[a-z]{5,8}$`)

// implicitRoles maps a lowercase tag name to its implicit ARIA role, for
// elements that carry no explicit role attribute. Inputs are resolved
// separately by type; anchors only get "link" when they carry an href.
var implicitRoles = map[string]string{
	"button":   "button",
	"a":        "link",
	"select":   "combobox",
	"textarea": "textbox",
	"img":      "img",
	"nav":      "navigation",
	"header":   "banner",
	"footer":   "contentinfo",
	"main":     "main",
	"h1":       "heading",
	"h2":       "heading",
	"h3":       "heading",
	"h4":       "heading",
	"h5":       "heading",
	"h6":       "heading",
	"ul":       "list",
	"ol":       "list",
	"li":       "listitem",
	"table":    "table",
	"form":     "form",
}

var implicitInputRoles = map[string]string{
	"button":   "button",
	"submit":   "button",
	"reset":    "button",
	"checkbox": "checkbox",
	"radio":    "radio",
	"range":    "slider",
	"search":   "searchbox",
}

// ComputeSelectors builds the full multi-strategy selector map for a live
// element (§4.6). All strategies are computed; priority is applied only
// when picking a single locator (see PlaywrightLocator/DescribeElement).
func ComputeSelectors(el hostenv.Element, limits *config.Limits) map[string]any {
	if el == nil {
		return nil
	}
	out := make(map[string]any)

	if testID := firstNonEmptyAttr(el, "data-testid", "data-test-id", "data-cy"); testID != "" {
		out["testId"] = testID
	}
	if label, ok := el.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		out["ariaLabel"] = strings.TrimSpace(label)
	}
	if role, name := accessibleRole(el); role != "" {
		roleMap := map[string]any{"role": role}
		if name != "" {
			roleMap["name"] = truncate(name, selectorTextCap)
		}
		out["role"] = roleMap
	}
	if id := el.ElementID(); id != "" {
		out["id"] = id
	}
	if isClickableForText(el, limits) {
		if text := strings.TrimSpace(el.TextContent()); text != "" {
			out["text"] = truncate(text, selectorTextCap)
		}
	}
	out["cssPath"] = CSSPath(el)
	return out
}

func firstNonEmptyAttr(el hostenv.Element, names ...string) string {
	for _, n := range names {
		if v, ok := el.Attr(n); ok && v != "" {
			return v
		}
	}
	return ""
}

// accessibleRole returns the element's explicit or implicit role, and its
// accessible name (aria-label, else trimmed text content).
func accessibleRole(el hostenv.Element) (role, name string) {
	if r, ok := el.Role(); ok && r != "" {
		role = r
	} else {
		role = implicitRole(el)
	}
	if role == "" {
		return "", ""
	}
	if label, ok := el.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		name = strings.TrimSpace(label)
	} else {
		name = strings.TrimSpace(el.TextContent())
	}
	return role, truncate(name, selectorTextCap)
}

func implicitRole(el hostenv.Element) string {
	tag := strings.ToLower(el.Tag())
	if tag == "input" {
		typ, _ := el.Attr("type")
		if r, ok := implicitInputRoles[strings.ToLower(typ)]; ok {
			return r
		}
		return "textbox"
	}
	if tag == "a" {
		if href, ok := el.Attr("href"); ok && href != "" {
			return "link"
		}
		return ""
	}
	return implicitRoles[tag]
}

// isClickableForText reports whether el's tag is in the configured
// clickable-tags set (§4.1 ClickableTags: BUTTON/A/SUMMARY), or whether it
// carries an explicit "button" role, either of which makes its text
// content eligible as a fallback selector strategy.
func isClickableForText(el hostenv.Element, limits *config.Limits) bool {
	if limits != nil && limits.ClickableTags[strings.ToUpper(el.Tag())] {
		return true
	}
	role, _ := el.Role()
	return role == "button"
}

// CSSPath walks up from el at most five hops, stopping at the first
// ancestor with an id (emitting only #id), otherwise emitting
// tag plus up to two non-dynamic classes, joined by " > ".
func CSSPath(el hostenv.Element) string {
	var hops []string
	cur := el
	for hop := 0; hop < 5 && cur != nil; hop++ {
		if id := cur.ElementID(); id != "" {
			hops = append([]string{"#" + id}, hops...)
			break
		}
		hops = append([]string{cssHop(cur)}, hops...)
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	return strings.Join(hops, " > ")
}

func cssHop(el hostenv.Element) string {
	tag := strings.ToLower(el.Tag())
	var classes []string
	for _, c := range el.ClassList() {
		if len(classes) == 2 {
			break
		}
		if c == "" || dynamicClassPattern.MatchString(c) {
			continue
		}
		classes = append(classes, c)
	}
	if len(classes) == 0 {
		return tag
	}
	return tag + "." + strings.Join(classes, ".")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
