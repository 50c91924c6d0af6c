// Package navigator resolves dotted attribute paths into arbitrary Go values.
// It backs value-attribute search: a node's value may be a map, a struct, a
// pointer to either, or a slice, and a path like "meta.owner" or
// "ports[0].name" walks into it.
package navigator

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ValueAt navigates a dotted path into root.
// Keys are separated by '.'; numeric segments and bracket segments index
// slices; bracket-quoted segments (["bad-key"]) address map keys that are not
// plain identifiers. An empty path returns root unchanged.
func ValueAt(root any, path string) (any, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return root, nil
	}
	cur := root
	for _, p := range ParsePath(trimmed) {
		next, err := navigateStep(cur, p)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// ParsePath splits a path into navigation steps, handling both dot and bracket notation.
// Examples: "items.0" -> ["items", "0"]
//
//	"items[0]" -> ["items", "0"]
//	"items[0].tags" -> ["items", "0", "tags"]
//	`labels["app.kubernetes.io/name"]` -> ["labels", `"app.kubernetes.io/name"`]
func ParsePath(path string) []string {
	var parts []string
	var current strings.Builder

	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		case '[':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j < len(path) {
				parts = append(parts, path[i+1:j])
				i = j
			}
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// navigateStep navigates a single step (key or index) in the data structure.
func navigateStep(cur any, step string) (any, error) {
	key := step
	if strings.HasPrefix(key, `"`) && strings.HasSuffix(key, `"`) && len(key) > 1 {
		key = key[1 : len(key)-1]
	}

	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[key]
		if !ok {
			return nil, fmt.Errorf("key '%s' not found", key)
		}
		return v, nil
	case []any:
		idx, err := strconv.Atoi(step)
		if err != nil {
			return nil, fmt.Errorf("expected numeric index into array but got '%s'", step)
		}
		if idx < 0 || idx >= len(t) {
			return nil, fmt.Errorf("index %d out of range", idx)
		}
		return t[idx], nil
	}

	rv := reflect.ValueOf(cur)
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot descend into %T at '%s'", cur, step)
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot descend into %T at '%s'", cur, step)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() { //nolint:exhaustive // only container kinds are navigable
	case reflect.Map:
		if value, ok := mapValue(rv, key); ok {
			return value, nil
		}
		return nil, fmt.Errorf("key '%s' not found", key)
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(step)
		if err != nil {
			return nil, fmt.Errorf("expected numeric index into array but got '%s'", step)
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range", idx)
		}
		return rv.Index(idx).Interface(), nil
	case reflect.Struct:
		if field, ok := structFieldValue(rv, key); ok {
			return field, nil
		}
		return nil, fmt.Errorf("key '%s' not found", key)
	default:
		return nil, fmt.Errorf("cannot descend into %T at '%s'", cur, step)
	}
}

// mapValue looks key up in a map. Maps keyed by something other than strings
// (yaml decodes `1: a` into map[any]any) match on the key's printed form.
func mapValue(rv reflect.Value, key string) (any, bool) {
	if kt := rv.Type().Key(); kt.Kind() == reflect.String {
		v := rv.MapIndex(reflect.ValueOf(key).Convert(kt))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	}
	for it := rv.MapRange(); it.Next(); {
		if fmt.Sprint(it.Key().Interface()) == key {
			return it.Value().Interface(), true
		}
	}
	return nil, false
}

func structFieldValue(rv reflect.Value, key string) (any, bool) {
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		tagName := strings.Split(tag, ",")[0]
		if tagName == "-" {
			continue
		}
		if tagName == key || field.Name == key {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// Equal compares two attribute values. Numbers compare by value regardless of
// their Go type, so an int filter matches the float64 a JSON decoder produced.
// Integers compare exactly, without a round trip through float64.
// Everything else falls back to reflect.DeepEqual.
func Equal(a, b any) bool {
	na, ok := toNumber(a)
	if !ok {
		return reflect.DeepEqual(a, b)
	}
	nb, ok := toNumber(b)
	return ok && na.equal(nb)
}

type numKind int

const (
	numInt numKind = iota
	numUint
	numFloat
)

type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func toNumber(v any) (number, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // non-numeric kinds are not comparable as numbers
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: numInt, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: numUint, u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			return number{}, false
		}
		return number{kind: numFloat, f: f}, true
	default:
		return number{}, false
	}
}

func (n number) equal(o number) bool {
	if n.kind > o.kind {
		n, o = o, n
	}
	switch {
	case n.kind == numInt && o.kind == numInt:
		return n.i == o.i
	case n.kind == numUint && o.kind == numUint:
		return n.u == o.u
	case n.kind == numInt && o.kind == numUint:
		return n.i >= 0 && uint64(n.i) == o.u
	case o.kind == numFloat && n.kind == numFloat:
		return n.f == o.f
	}
	// one integer, one float: equal only when the float is that exact integer
	f := o.f
	if f != math.Trunc(f) {
		return false
	}
	if n.kind == numInt {
		return f >= -(1<<63) && f < 1<<63 && int64(f) == n.i
	}
	return f >= 0 && f < 1<<64 && uint64(f) == n.u
}
