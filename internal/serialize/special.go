package serialize

import (
	"reflect"
	"runtime"
	"strings"
)

// DOMNode is implemented by any value representing a live DOM element (the
// hostenv package's Element satisfies it). Serializing one never walks its
// fields — it always collapses to "[tag#id.classes]" per §4.2.
type DOMNode interface {
	Tag() string
	ElementID() string
	ClassList() []string
}

func domNodeValue(n DOMNode) string {
	s := n.Tag()
	if id := n.ElementID(); id != "" {
		s += "#" + id
	}
	if classes := n.ClassList(); len(classes) > 0 {
		s += "." + strings.Join(classes, ".")
	}
	return "[" + s + "]"
}

type errorShape struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

func errorValue(err error) errorShape {
	name := reflect.TypeOf(err).String()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimPrefix(name, "*")
	return errorShape{
		Name:    name,
		Message: err.Error(),
		Stack:   err.Error(),
	}
}

// runtimeFuncName returns the short (package-stripped) function name backing
// a reflect.Value of Kind Func, or "" if it cannot be determined (e.g. a nil
// func value).
func runtimeFuncName(rv reflect.Value) string {
	if rv.IsNil() {
		return ""
	}
	pc := rv.Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
