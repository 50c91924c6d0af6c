package formatter

import (
	"strconv"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/nodetree/pkg/node"
)

// TreeOptions controls tree output formatting.
type TreeOptions struct {
	// NoValues hides values (structure only).
	NoValues bool
	// MaxDepth limits tree depth below the start node (0 = unlimited).
	MaxDepth int
	// MaxStringLen is max display width for inline values (0 = unlimited).
	MaxStringLen int
}

// FormatTree renders n and its descendants as an ASCII tree. Each line is
// the node's path segment; leaves and nodes with scalar values show the
// value inline after a colon.
func FormatTree(n *node.Node, opts TreeOptions) string {
	tree := treeprint.NewWithRoot(nodeLabel(n, true, opts))
	buildTree(tree, n, opts, 0)
	return tree.String()
}

func buildTree(branch treeprint.Tree, n *node.Node, opts TreeOptions, depth int) {
	if n.IsLeaf() {
		return
	}
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode("...")
		return
	}
	for _, c := range n.Children() {
		if c.IsLeaf() {
			branch.AddNode(nodeLabel(c, false, opts))
			continue
		}
		child := branch.AddBranch(nodeLabel(c, false, opts))
		buildTree(child, c, opts, depth+1)
	}
}

// nodeLabel is the display text for a tree line.
func nodeLabel(n *node.Node, isStart bool, opts TreeOptions) string {
	key := segment(n)
	if isStart {
		key = n.Path()
		if n.Name() != "" && n.IsRoot() {
			key = n.Name()
		}
	}
	if opts.NoValues {
		return key
	}
	v := n.Value()
	if !n.IsLeaf() && !isScalar(v) {
		return key
	}
	return key + ": " + truncate(Stringify(v), opts.MaxStringLen)
}

// segment is the last path element of n: its name or "[index]".
func segment(n *node.Node) string {
	switch {
	case n.Name() != "":
		return n.Name()
	case n.IsRoot():
		return "."
	default:
		return "[" + strconv.Itoa(n.Index()) + "]"
	}
}
