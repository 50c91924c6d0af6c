package cel

import (
	"encoding/json"
	"fmt"
	"reflect"
)

var (
	stringMapType = reflect.TypeOf(map[string]any(nil))
	anyMapType    = reflect.TypeOf(map[any]any(nil))
	anyListType   = reflect.TypeOf([]any(nil))
)

// Normalize converts a node value into types the CEL runtime can adapt.
// Structs (and pointers to them) are round-tripped through JSON so their json
// tags become map keys, at any depth: inside maps and slices too. Maps and
// slices of plain data are returned as is.
func Normalize(value any) (any, error) {
	v, _, err := normalize(value)
	return v, err
}

// normalize also reports whether the result differs from value, so
// containers holding only plain data are not copied.
func normalize(value any) (any, bool, error) {
	if value == nil {
		return nil, false, nil
	}
	rv := reflect.ValueOf(value)
	changed := false
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true, nil
		}
		rv = rv.Elem()
		changed = true
	}

	switch rv.Kind() { //nolint:exhaustive // remaining kinds go through JSON
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.Interface(), changed, nil
	case reflect.Interface:
		v, _, err := normalize(rv.Interface())
		return v, true, err
	case reflect.Map:
		return normalizeMap(rv, changed)
	case reflect.Slice, reflect.Array:
		if b, ok := rv.Interface().([]byte); ok {
			return b, changed, nil
		}
		return normalizeList(rv, changed)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, false, fmt.Errorf("cannot marshal %T to JSON: %w", value, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("cannot unmarshal %T: %w", value, err)
	}
	return out, true, nil
}

func normalizeMap(rv reflect.Value, changed bool) (any, bool, error) {
	if t := rv.Type(); t != stringMapType && t != anyMapType {
		changed = true
	}
	var (
		out any
		put func(k reflect.Value, v any)
	)
	if rv.Type().Key().Kind() == reflect.String {
		m := make(map[string]any, rv.Len())
		out, put = m, func(k reflect.Value, v any) { m[k.String()] = v }
	} else {
		m := make(map[any]any, rv.Len())
		out, put = m, func(k reflect.Value, v any) { m[k.Interface()] = v }
	}
	for it := rv.MapRange(); it.Next(); {
		v, c, err := normalize(it.Value().Interface())
		if err != nil {
			return nil, false, fmt.Errorf("key %v: %w", it.Key().Interface(), err)
		}
		put(it.Key(), v)
		changed = changed || c
	}
	if !changed {
		return rv.Interface(), false, nil
	}
	return out, true, nil
}

func normalizeList(rv reflect.Value, changed bool) (any, bool, error) {
	if rv.Type() != anyListType {
		changed = true
	}
	items := make([]any, rv.Len())
	for i := range items {
		v, c, err := normalize(rv.Index(i).Interface())
		if err != nil {
			return nil, false, fmt.Errorf("element [%d]: %w", i, err)
		}
		items[i] = v
		changed = changed || c
	}
	if !changed {
		return rv.Interface(), false, nil
	}
	return items, true, nil
}
