package ai

import "strings"

const ancestryMaxDepth = 10
const propKeysCap = 20
const stateKeysCap = 10

// PropertyElement is the capability an element needs to expose for
// framework detection: enumerable own-property keys, and lookup by key
// (mirroring `Object.keys(el)` + `el[key]` in the browser).
type PropertyElement interface {
	PropertyKeys() []string
	Property(key string) (any, bool)
}

// ReactFiber is a minimal view onto a React fiber node sufficient to
// reconstruct component ancestry.
type ReactFiber interface {
	IsHostComponent() bool // true when Type is a plain string (e.g. "div")
	DisplayName() string
	MemoizedProps() map[string]any
	MemoizedState() any
	Return() (ReactFiber, bool)
}

// ComponentInfo is one entry in a React component ancestry, root-first.
type ComponentInfo struct {
	Name     string   `json:"name"`
	PropKeys []string `json:"propKeys"`
	HasState bool     `json:"hasState"`
	StateKeys []string `json:"stateKeys,omitempty"`
}

// DetectFramework inspects an element's property keys for the magic
// markers each framework attaches, returning the framework name and the
// matched key (empty string, empty key if none match).
func DetectFramework(el PropertyElement) (framework, key string) {
	if el == nil {
		return "", ""
	}
	for _, k := range el.PropertyKeys() {
		if strings.HasPrefix(k, "__reactFiber$") || strings.HasPrefix(k, "__reactInternalInstance$") {
			return "react", k
		}
	}
	for _, k := range el.PropertyKeys() {
		if k == "__vueParentComponent" || k == "__vue_app__" {
			return "vue", k
		}
	}
	for _, k := range el.PropertyKeys() {
		if k == "__svelte_meta" {
			return "svelte", k
		}
	}
	return "", ""
}

// GetReactComponentAncestry walks the fiber's return chain up to depth 10,
// skipping host fibers, and returns root-first component info.
func GetReactComponentAncestry(fiber ReactFiber) []ComponentInfo {
	var chain []ComponentInfo
	cur := fiber
	for depth := 0; depth < ancestryMaxDepth && cur != nil; depth++ {
		if !cur.IsHostComponent() {
			chain = append(chain, componentInfoOf(cur))
		}
		next, ok := cur.Return()
		if !ok {
			break
		}
		cur = next
	}
	reverse(chain)
	return chain
}

func componentInfoOf(fiber ReactFiber) ComponentInfo {
	name := fiber.DisplayName()
	if name == "" {
		name = "Anonymous"
	}
	props := fiber.MemoizedProps()
	propKeys := make([]string, 0, len(props))
	for k := range props {
		if k == "children" {
			continue
		}
		propKeys = append(propKeys, k)
	}
	if len(propKeys) > propKeysCap {
		propKeys = propKeys[:propKeysCap]
	}

	state := fiber.MemoizedState()
	hasState := false
	var stateKeys []string
	if m, ok := state.(map[string]any); ok {
		hasState = true
		for k := range m {
			stateKeys = append(stateKeys, k)
		}
		if len(stateKeys) > stateKeysCap {
			stateKeys = stateKeys[:stateKeysCap]
		}
	}
	return ComponentInfo{Name: name, PropKeys: propKeys, HasState: hasState, StateKeys: stateKeys}
}

func reverse(s []ComponentInfo) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
