package node

import "iter"

// Collect returns every descendant of n, excluding n, in pre-order with
// children in insertion order. Each call walks the tree afresh.
func (n *Node) Collect() []*Node {
	out := make([]*Node, 0, n.size)
	for _, c := range n.children {
		c.collect(&out)
	}
	return out
}

func (n *Node) collect(out *[]*Node) {
	*out = append(*out, n)
	for _, c := range n.children {
		c.collect(out)
	}
}

// Walk visits n and its descendants in pre-order until fn returns false.
// It reports whether the walk ran to completion.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// All iterates over n and its descendants in pre-order.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.Walk(yield)
	}
}
