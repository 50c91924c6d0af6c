package cel

import (
	"slices"
	"strings"

	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
)

// FunctionNames returns the sorted names of the functions and macros a
// predicate may call. Operators are excluded.
func (e *Evaluator) FunctionNames() []string {
	seen := make(map[string]bool)
	for name := range e.env.Functions() {
		if !isOperator(name) {
			seen[name] = true
		}
	}
	for _, m := range e.env.Macros() {
		if !isOperator(m.Function()) {
			seen[m.Function()] = true
		}
	}
	return sortedKeys(seen)
}

// FunctionDocs returns one "name - usage" line per overload, plus
// "name - macro" for each macro, sorted.
func (e *Evaluator) FunctionDocs() []string {
	seen := make(map[string]bool)
	for name, fn := range e.env.Functions() {
		if isOperator(name) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			seen[name+" - "+usage(name, o)] = true
		}
	}
	for _, m := range e.env.Macros() {
		if !isOperator(m.Function()) {
			seen[m.Function()+" - macro"] = true
		}
	}
	return sortedKeys(seen)
}

// isOperator reports whether name is an internal operator declaration such
// as "_+_", "!_" or "@in".
func isOperator(name string) bool {
	return strings.HasPrefix(name, "@") ||
		strings.HasPrefix(name, "_") ||
		strings.HasSuffix(name, "_")
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// usage renders an overload as "recv.name(args) -> result" or
// "name(args) -> result".
func usage(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	call := name + "(" + typeList(params) + ")"
	if o.IsMemberFunction() && len(params) > 0 {
		call = typeLabel(params[0]) + "." + name + "(" + typeList(params[1:]) + ")"
	}
	if r := o.ResultType(); r != nil {
		call += " -> " + typeLabel(r)
	}
	return call
}

func typeList(params []*types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = typeLabel(p)
	}
	return strings.Join(parts, ", ")
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	if name := t.TypeName(); name != "" {
		return name
	}
	return "any"
}
