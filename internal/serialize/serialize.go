// serialize.go — Safe value → JSON-safe projection (§4.2). Every capture
// module routes arbitrary page-originated values through Serialize before
// they ever reach an Event payload, so this is the one place depth, width,
// string-length, and cycle guards live.
//
// Design: seen is keyed by pointer identity for the duration of a single
// top-level Serialize call and never carried across calls — a fresh graph
// never inherits another graph's cycle state (Design Notes §9).
package serialize

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/brennhill/gasoline-page-agent/internal/config"
)

const truncSuffix = "... [truncated]"

// Serializer projects arbitrary values into a JSON-safe shape bounded by cfg.
type Serializer struct {
	cfg *config.Limits
}

// New returns a Serializer bounded by cfg.
func New(cfg *config.Limits) *Serializer {
	return &Serializer{cfg: cfg}
}

// Value serializes v starting at depth 0 with a fresh visitation set.
func (s *Serializer) Value(v any) any {
	seen := make(map[uintptr]bool)
	return s.value(reflect.ValueOf(v), 0, seen)
}

func (s *Serializer) value(rv reflect.Value, depth int, seen map[uintptr]bool) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = "[Unserializable]"
		}
	}()

	if !rv.IsValid() {
		return nil
	}

	if special, ok := s.specialValue(rv); ok {
		return special
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return s.derefValue(rv, depth, seen)
	case reflect.String:
		return truncateString(rv.String(), s.cfg.MaxStringLen)
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Func:
		return formatFunc(rv)
	case reflect.Slice, reflect.Array:
		return s.sliceValue(rv, depth, seen)
	case reflect.Map:
		return s.mapValue(rv, depth, seen)
	case reflect.Struct:
		return s.structValue(rv, depth, seen)
	default:
		return fmt.Sprintf("%v", rv.Interface())
	}
}

// specialValue recognizes Error and DOMNode values, which serialize to a
// fixed shape regardless of their internal fields (§4.2).
func (s *Serializer) specialValue(rv reflect.Value) (any, bool) {
	if rv.Kind() != reflect.Ptr && rv.Kind() != reflect.Struct && rv.Kind() != reflect.Interface {
		return nil, false
	}
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, false
	}
	if !rv.CanInterface() {
		return nil, false
	}
	iv := rv.Interface()
	if err, ok := iv.(error); ok {
		return errorValue(err), true
	}
	if dn, ok := iv.(DOMNode); ok {
		return domNodeValue(dn), true
	}
	return nil, false
}

func (s *Serializer) derefValue(rv reflect.Value, depth int, seen map[uintptr]bool) any {
	if rv.IsNil() {
		return nil
	}
	if rv.Kind() == reflect.Ptr {
		ptr := rv.Pointer()
		if seen[ptr] {
			return "[Circular]"
		}
		seen[ptr] = true
		defer delete(seen, ptr)
	}
	return s.value(rv.Elem(), depth, seen)
}

func formatFunc(rv reflect.Value) string {
	name := runtimeFuncName(rv)
	if name == "" {
		name = "anonymous"
	}
	return "[Function: " + name + "]"
}

func (s *Serializer) sliceValue(rv reflect.Value, depth int, seen map[uintptr]bool) any {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return fmt.Sprintf("[Binary: %d bytes]", rv.Len())
	}
	if depth >= s.cfg.MaxDepth {
		return "[Max depth exceeded]"
	}
	n := rv.Len()
	if n > s.cfg.MaxArrayLen {
		n = s.cfg.MaxArrayLen
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = s.value(rv.Index(i), depth+1, seen)
	}
	return out
}

func (s *Serializer) mapValue(rv reflect.Value, depth int, seen map[uintptr]bool) any {
	if rv.IsNil() {
		return nil
	}
	ptr := rv.Pointer()
	if seen[ptr] {
		return "[Circular]"
	}
	seen[ptr] = true
	defer delete(seen, ptr)

	if depth >= s.cfg.MaxDepth {
		return "[Max depth exceeded]"
	}

	keys := rv.MapKeys()
	strKeys := make([]string, 0, len(keys))
	keyByStr := make(map[string]reflect.Value, len(keys))
	for _, k := range keys {
		ks := fmt.Sprintf("%v", k.Interface())
		strKeys = append(strKeys, ks)
		keyByStr[ks] = k
	}
	sort.Strings(strKeys)

	out := make(map[string]any, len(strKeys))
	count := 0
	for _, ks := range strKeys {
		if count >= s.cfg.MaxObjectKeys {
			break
		}
		out[ks] = s.value(rv.MapIndex(keyByStr[ks]), depth+1, seen)
		count++
	}
	return out
}

// structValue serializes exported fields in declaration order. Plain Go
// struct values have no addressable identity to cycle-guard; any cycle in
// the graph necessarily passes through a pointer, slice, or map field,
// which are each guarded individually as they're visited.
func (s *Serializer) structValue(rv reflect.Value, depth int, seen map[uintptr]bool) any {
	if depth >= s.cfg.MaxDepth {
		return "[Max depth exceeded]"
	}

	t := rv.Type()
	out := make(map[string]any, t.NumField())
	count := 0
	for i := 0; i < t.NumField() && count < s.cfg.MaxObjectKeys; i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		out[f.Name] = s.value(rv.Field(i), depth+1, seen)
		count++
	}
	return out
}

func truncateString(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	return str[:maxLen] + truncSuffix
}
