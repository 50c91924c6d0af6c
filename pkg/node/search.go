package node

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/oakwood-commons/nodetree/internal/cel"
	"github.com/oakwood-commons/nodetree/internal/navigator"
	"github.com/oakwood-commons/nodetree/pkg/nodeerrors"
)

// Attribute keys accepted by ByAttr.
const (
	AttrName  = "name"
	AttrValue = "value"
	AttrDepth = "depth"
	AttrIndex = "index"
	AttrLen   = "len"
	AttrSize  = "size"
)

var nodeAttrs = map[string]bool{
	AttrName:  true,
	AttrValue: true,
	AttrDepth: true,
	AttrIndex: true,
	AttrLen:   true,
	AttrSize:  true,
}

// Predicate reports whether a node matches.
type Predicate func(*Node) bool

// SearchOption adds one criterion to a search. All criteria must match.
type SearchOption func(*query)

type attrFilter struct {
	key   string
	value any
}

type query struct {
	predicates []Predicate
	nilPred    bool
	names      []string
	attrs      []attrFilter
	valueAttrs []attrFilter
	exprs      []string
}

// ByPredicate matches nodes for which fn returns true.
func ByPredicate(fn Predicate) SearchOption {
	return func(q *query) {
		if fn == nil {
			q.nilPred = true
			return
		}
		q.predicates = append(q.predicates, fn)
	}
}

// ByName matches nodes with the given name.
func ByName(name string) SearchOption {
	return func(q *query) {
		q.names = append(q.names, name)
	}
}

// ByAttr matches nodes whose own attribute key equals value. See the Attr*
// constants for the accepted keys.
func ByAttr(key string, value any) SearchOption {
	return func(q *query) {
		q.attrs = append(q.attrs, attrFilter{key: key, value: value})
	}
}

// ByValueAttr matches nodes whose value, navigated along the dotted path,
// equals value. Nodes whose value lacks the path do not match.
func ByValueAttr(path string, value any) SearchOption {
	return func(q *query) {
		q.valueAttrs = append(q.valueAttrs, attrFilter{key: path, value: value})
	}
}

// ByExpr matches nodes for which the CEL expression is true. The expression
// sees the node as "_" with fields name, value, depth, index, len, size, path
// and leaf.
func ByExpr(expr string) SearchOption {
	return func(q *query) {
		q.exprs = append(q.exprs, expr)
	}
}

// SearchFor returns the first node, in pre-order starting at n itself, that
// matches every criterion, or nil when none does.
func (n *Node) SearchFor(opts ...SearchOption) (*Node, error) {
	match, err := compileQuery("SearchFor", n, opts)
	if err != nil {
		return nil, err
	}
	return n.searchFirst(match), nil
}

// SearchAll returns every node, in pre-order starting at n itself, that
// matches every criterion. The result is empty, not nil, when none does.
func (n *Node) SearchAll(opts ...SearchOption) ([]*Node, error) {
	match, err := compileQuery("SearchAll", n, opts)
	if err != nil {
		return nil, err
	}
	out := []*Node{}
	n.searchAll(match, &out)
	return out, nil
}

// searchFirst and searchAll trust match; all validation happened in
// compileQuery.
func (n *Node) searchFirst(match Predicate) *Node {
	if match(n) {
		return n
	}
	for _, c := range n.children {
		if found := c.searchFirst(match); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) searchAll(match Predicate, out *[]*Node) {
	if match(n) {
		*out = append(*out, n)
	}
	for _, c := range n.children {
		c.searchAll(match, out)
	}
}

var exprEvaluator = sync.OnceValues(func() (*cel.Evaluator, error) {
	return cel.NewEvaluator()
})

// compileQuery validates the options once and folds them into one predicate.
func compileQuery(op string, n *Node, opts []SearchOption) (Predicate, error) {
	var q query
	for _, opt := range opts {
		if opt != nil {
			opt(&q)
		}
	}

	if q.nilPred {
		return nil, nodeerrors.New(nodeerrors.KindType, op, n.Path(), "predicate is nil")
	}
	if len(q.predicates)+len(q.names)+len(q.attrs)+len(q.valueAttrs)+len(q.exprs) == 0 {
		return nil, nodeerrors.New(nodeerrors.KindArgument, op, n.Path(), "no search criteria given")
	}

	matchers := append([]Predicate{}, q.predicates...)

	for _, name := range q.names {
		if !ValidName(name) {
			return nil, nodeerrors.New(nodeerrors.KindNaming, op, n.Path(), "search name %q is not a valid identifier", name)
		}
		want := name
		matchers = append(matchers, func(c *Node) bool { return c.name == want })
	}

	for _, f := range q.attrs {
		if !nodeAttrs[f.key] {
			return nil, nodeerrors.New(nodeerrors.KindArgument, op, n.Path(),
				"unknown node attribute %q (want one of %s)", f.key, strings.Join(attrKeys(), ", "))
		}
		if f.key == AttrName {
			if _, ok := f.value.(string); !ok {
				return nil, nodeerrors.New(nodeerrors.KindType, op, n.Path(), "name attribute must be a string, got %T", f.value)
			}
		}
		filter := f
		matchers = append(matchers, func(c *Node) bool {
			return navigator.Equal(c.attr(filter.key), filter.value)
		})
	}

	for _, f := range q.valueAttrs {
		if strings.TrimSpace(f.key) == "" {
			return nil, nodeerrors.New(nodeerrors.KindArgument, op, n.Path(), "value attribute path is empty")
		}
		filter := f
		matchers = append(matchers, func(c *Node) bool {
			got, err := navigator.ValueAt(c.value, filter.key)
			return err == nil && navigator.Equal(got, filter.value)
		})
	}

	if len(q.exprs) > 0 {
		eval, err := exprEvaluator()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, expr := range q.exprs {
			pred, err := eval.CompilePredicate(expr)
			if err != nil {
				return nil, nodeerrors.New(nodeerrors.KindArgument, op, n.Path(), "expression %q: %v", expr, err)
			}
			matchers = append(matchers, func(c *Node) bool {
				return pred.Match(c.view())
			})
		}
	}

	if len(matchers) == 1 {
		return matchers[0], nil
	}
	return func(c *Node) bool {
		for _, m := range matchers {
			if !m(c) {
				return false
			}
		}
		return true
	}, nil
}

func attrKeys() []string {
	keys := make([]string, 0, len(nodeAttrs))
	for k := range nodeAttrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (n *Node) attr(key string) any {
	switch key {
	case AttrName:
		return n.name
	case AttrValue:
		return n.value
	case AttrDepth:
		return n.Depth()
	case AttrIndex:
		return n.index
	case AttrLen:
		return len(n.children)
	case AttrSize:
		return n.size
	default:
		return nil
	}
}

// view is the CEL-facing representation of n.
func (n *Node) view() map[string]any {
	value, err := cel.Normalize(n.value)
	if err != nil {
		value = n.value
	}
	return map[string]any{
		AttrName:  n.name,
		AttrValue: value,
		AttrDepth: n.Depth(),
		AttrIndex: n.index,
		AttrLen:   len(n.children),
		AttrSize:  n.size,
		"path":    n.Path(),
		"leaf":    len(n.children) == 0,
	}
}
