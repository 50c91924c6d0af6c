// Package node implements an in-memory tree of named, valued nodes.
//
// A Node owns an ordered slice of children and keeps a non-owning pointer to
// its parent. Children are attached once and never re-parented, so the tree
// is acyclic by construction. Named children are reachable through Child and
// Lookup; every node can be searched (SearchFor, SearchAll) and flattened
// (Collect, Walk, All).
package node

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/oakwood-commons/nodetree/pkg/nodeerrors"
)

// Node is a single tree element.
type Node struct {
	value    any
	name     string
	parent   *Node
	children []*Node
	byName   map[string]*Node

	cap   int // max descendants, 0 = unlimited
	size  int // current descendants
	index int // position in parent.children, -1 for a root
}

// Option configures a Node at construction.
type Option func(*Node)

// WithName sets the node name. It must be a valid identifier (see ValidName).
func WithName(name string) Option {
	return func(n *Node) {
		n.name = name
	}
}

// WithCap bounds the total number of descendants the node may hold.
// Zero means unlimited.
func WithCap(limit int) Option {
	return func(n *Node) {
		n.cap = limit
	}
}

// New creates a root node holding value.
func New(value any, opts ...Option) (*Node, error) {
	n := &Node{value: value, index: -1}
	for _, opt := range opts {
		opt(n)
	}
	if n.name != "" && !ValidName(n.name) {
		return nil, nodeerrors.New(nodeerrors.KindNaming, "New", "", "name %q is not a valid identifier", n.name)
	}
	if n.cap < 0 {
		return nil, nodeerrors.New(nodeerrors.KindCapacity, "New", "", "cap must be zero (unlimited) or positive, got %d", n.cap)
	}
	return n, nil
}

// MustNew is like New but panics on error.
func MustNew(value any, opts ...Option) *Node {
	n, err := New(value, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// ValidName reports whether name can be used as a node name: a letter or
// underscore followed by letters, digits or underscores.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// Value returns the node payload.
func (n *Node) Value() any { return n.value }

// SetValue replaces the node payload.
func (n *Node) SetValue(v any) { n.value = v }

// Name returns the node name, or "" for an unnamed node.
func (n *Node) Name() string { return n.name }

// Parent returns the owning node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the children in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Siblings returns the parent's children excluding n. A root has none.
func (n *Node) Siblings() []*Node {
	if n.parent == nil {
		return []*Node{}
	}
	out := make([]*Node, 0, len(n.parent.children)-1)
	for _, c := range n.parent.children {
		if c != n {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.byName[name]
	return c, ok
}

// Len returns the number of direct children.
func (n *Node) Len() int { return len(n.children) }

// Size returns the number of descendants.
func (n *Node) Size() int { return n.size }

// Cap returns the descendant cap, 0 when unlimited.
func (n *Node) Cap() int { return n.cap }

// Index returns the position of n among its siblings, -1 for a root.
func (n *Node) Index() int { return n.index }

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Depth returns the tier of n: the number of edges between n and its root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Root returns the topmost ancestor of n (n itself for a root).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// AddChild attaches child as the last child of n.
//
// It fails without mutating anything when child is nil (type), when child is
// n, an ancestor of n, or already attached elsewhere (hierarchy), when its
// name collides with an existing child (naming), or when n or any capped
// ancestor would exceed its cap (capacity).
func (n *Node) AddChild(child *Node) error {
	if err := n.validateAttach("AddChild", []*Node{child}); err != nil {
		return err
	}
	n.attach(child)
	return nil
}

// Add attaches children in order and returns n for chaining. The batch is
// validated as a whole first; a rejected batch attaches nothing.
func (n *Node) Add(children ...*Node) (*Node, error) {
	if err := n.validateAttach("Add", children); err != nil {
		return n, err
	}
	for _, c := range children {
		n.attach(c)
	}
	return n, nil
}

func (n *Node) validateAttach(op string, batch []*Node) error {
	added := 0
	seen := make(map[*Node]bool, len(batch))
	names := make(map[string]bool, len(batch))
	for i, child := range batch {
		if child == nil {
			return nodeerrors.New(nodeerrors.KindType, op, n.Path(), "child %d is nil", i)
		}
		if seen[child] {
			return nodeerrors.New(nodeerrors.KindHierarchy, op, n.Path(), "child %d is listed twice", i)
		}
		seen[child] = true
		if child.parent != nil {
			return nodeerrors.New(nodeerrors.KindHierarchy, op, n.Path(), "child %s is already attached to %s", child.describe(), child.parent.Path())
		}
		for a := n; a != nil; a = a.parent {
			if a == child {
				return nodeerrors.New(nodeerrors.KindHierarchy, op, n.Path(), "child %s is this node or one of its ancestors", child.describe())
			}
		}
		if child.name != "" {
			if _, dup := n.byName[child.name]; dup || names[child.name] {
				return nodeerrors.New(nodeerrors.KindNaming, op, n.Path(), "duplicate child name %q", child.name)
			}
			names[child.name] = true
		}
		added += 1 + child.size
	}
	for a := n; a != nil; a = a.parent {
		if a.cap > 0 && a.size+added > a.cap {
			return nodeerrors.New(nodeerrors.KindCapacity, op, a.Path(),
				"cap is %d descendants with %d free; attaching %d more nodes exceeds it by %d",
				a.cap, a.cap-a.size, added, a.size+added-a.cap)
		}
	}
	return nil
}

// attach assumes validateAttach succeeded.
func (n *Node) attach(child *Node) {
	child.parent = n
	child.index = len(n.children)
	n.children = append(n.children, child)
	if child.name != "" {
		if n.byName == nil {
			n.byName = make(map[string]*Node)
		}
		n.byName[child.name] = child
	}
	added := 1 + child.size
	for a := n; a != nil; a = a.parent {
		a.size += added
	}
}

// Left returns the previous sibling.
func (n *Node) Left() (*Node, error) {
	if n.parent == nil {
		return nil, nodeerrors.New(nodeerrors.KindLimit, "Left", n.Path(), "root has no siblings")
	}
	if n.index == 0 {
		return nil, nodeerrors.New(nodeerrors.KindLimit, "Left", n.Path(), "cannot go further left, index is already 0 of %d", len(n.parent.children)-1)
	}
	return n.parent.children[n.index-1], nil
}

// Right returns the next sibling.
func (n *Node) Right() (*Node, error) {
	if n.parent == nil {
		return nil, nodeerrors.New(nodeerrors.KindLimit, "Right", n.Path(), "root has no siblings")
	}
	last := len(n.parent.children) - 1
	if n.index == last {
		return nil, nodeerrors.New(nodeerrors.KindLimit, "Right", n.Path(), "cannot go further right, index is already %d of %d", n.index, last)
	}
	return n.parent.children[n.index+1], nil
}

// Lookup resolves a slash-delimited path of child names below n. Segments
// may also be positional ("[2]"). A leading "./" and empty segments are
// ignored; "" and "." resolve to n.
func (n *Node) Lookup(path string) (*Node, bool) {
	cur := n
	for _, seg := range strings.Split(strings.TrimPrefix(path, "./"), "/") {
		if seg == "" || seg == "." {
			continue
		}
		if strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]") {
			i, err := strconv.Atoi(seg[1 : len(seg)-1])
			if err != nil || i < 0 || i >= len(cur.children) {
				return nil, false
			}
			cur = cur.children[i]
			continue
		}
		next, ok := cur.byName[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Path renders the slash-delimited path from the root to n. The root is "."
// and unnamed nodes appear as their index in brackets, e.g. "./a/[1]/c".
// It is diagnostic only.
func (n *Node) Path() string {
	if n.parent == nil {
		return "."
	}
	var segs []string
	for c := n; c.parent != nil; c = c.parent {
		segs = append(segs, c.label())
	}
	var sb strings.Builder
	sb.WriteString(".")
	for i := len(segs) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(segs[i])
	}
	return sb.String()
}

// String implements fmt.Stringer with Path.
func (n *Node) String() string {
	return n.Path()
}

// describe names n in error messages.
func (n *Node) describe() string {
	if n.name != "" {
		return strconv.Quote(n.name)
	}
	return "(unnamed)"
}

// label is the path segment for n.
func (n *Node) label() string {
	if n.name != "" {
		return n.name
	}
	return "[" + strconv.Itoa(n.index) + "]"
}
