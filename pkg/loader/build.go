package loader

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/oakwood-commons/nodetree/pkg/node"
)

const maxDecodeDepth = 20

// BuildOption configures BuildTree.
type BuildOption func(*buildConfig)

type buildConfig struct {
	rootName      string
	nodeCap       int
	decodeStrings bool
}

// WithRootName names the root node. The name must be a valid identifier.
func WithRootName(name string) BuildOption {
	return func(c *buildConfig) { c.rootName = name }
}

// WithNodeCap sets a descendant cap on the root node.
func WithNodeCap(limit int) BuildOption {
	return func(c *buildConfig) { c.nodeCap = limit }
}

// WithDecodeStrings expands string values holding serialized YAML, JSON,
// NDJSON or TOML maps and lists into subtrees.
func WithDecodeStrings() BuildOption {
	return func(c *buildConfig) { c.decodeStrings = true }
}

// BuildTree converts decoded data into a node tree. Maps become nodes with
// one child per key, named by the sanitized key and visited in sorted key
// order; slices become nodes with unnamed children; everything else is a
// leaf. Each node's value is the data at that point.
func BuildTree(data any, opts ...BuildOption) (*node.Node, error) {
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.decodeStrings {
		data = decodeStrings(data, 0)
	}

	var nodeOpts []node.Option
	if cfg.rootName != "" {
		nodeOpts = append(nodeOpts, node.WithName(cfg.rootName))
	}
	if cfg.nodeCap > 0 {
		nodeOpts = append(nodeOpts, node.WithCap(cfg.nodeCap))
	}
	root, err := node.New(data, nodeOpts...)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	if err := attachChildren(root, data); err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return root, nil
}

func attachChildren(parent *node.Node, data any) error {
	rv := reflect.ValueOf(data)
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() { //nolint:exhaustive // scalars and structs are leaves
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		values := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			values[k] = iter.Value().Interface()
		}
		sort.Strings(keys)

		used := make(map[string]bool, len(keys))
		for _, k := range keys {
			name := uniqueName(SanitizeName(k), used)
			child, err := node.New(values[k], node.WithName(name))
			if err != nil {
				return err
			}
			if err := parent.AddChild(child); err != nil {
				return err
			}
			if err := attachChildren(child, values[k]); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < rv.Len(); i++ {
			v := rv.Index(i).Interface()
			child, err := node.New(v)
			if err != nil {
				return err
			}
			if err := parent.AddChild(child); err != nil {
				return err
			}
			if err := attachChildren(child, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// SanitizeName turns an arbitrary map key into a valid node name: invalid
// runes become '_' and a leading digit gets a '_' prefix. An empty key
// becomes "_".
func SanitizeName(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	name := b.String()
	if name == "" {
		return "_"
	}
	if r := []rune(name)[0]; unicode.IsDigit(r) {
		name = "_" + name
	}
	return name
}

// uniqueName appends _2, _3, ... until name is unused among its siblings.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = name + "_" + strconv.Itoa(i)
	}
	used[candidate] = true
	return candidate
}

// decodeStrings replaces string leaves that parse into a map or slice with
// the parsed structure, recursing into the result.
func decodeStrings(data any, depth int) any {
	if depth > maxDecodeDepth {
		return data
	}
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = decodeStrings(val, depth+1)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = decodeStrings(val, depth+1)
		}
		return out
	case string:
		if decoded, ok := tryDecode(v); ok {
			return decodeStrings(decoded, depth+1)
		}
		return v
	default:
		return data
	}
}

// tryDecode reports whether s holds serialized structured data.
// Plain strings and scalars return false.
func tryDecode(s string) (any, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	parsed, err := LoadRoot(s)
	if err != nil {
		return nil, false
	}
	switch parsed.(type) {
	case map[string]any, []any:
		return parsed, true
	default:
		return nil, false
	}
}
