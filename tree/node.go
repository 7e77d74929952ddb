// Package tree provides parse trees, a hash-consed node arena used while
// parsing, and the bracket and JSON encodings of trees.
package tree

import (
	"strings"
)

// Node is a parse tree node. Leaves are terminal nodes labelled with their
// surface string; interior nodes are labelled with a grammar category.
// Trees returned by parsers are not shared with the parser and should be
// treated as immutable.
type Node struct {
	Label    string
	Children []*Node
	Terminal bool
}

// NewLeaf creates a terminal node.
func NewLeaf(surface string) *Node {
	return &Node{Label: surface, Terminal: true}
}

// NewNode creates an interior node.
func NewNode(label string, children ...*Node) *Node {
	return &Node{Label: label, Children: children}
}

// IsTerminal returns true if n is a leaf.
func (n *Node) IsTerminal() bool {
	return n.Terminal
}

// Leaves returns the terminal yield of n from left to right.
func (n *Node) Leaves() []string {
	var out []string
	n.walkLeaves(func(s string) { out = append(out, s) })
	return out
}

func (n *Node) walkLeaves(fn func(string)) {
	if n.Terminal {
		fn(n.Label)
		return
	}
	for _, c := range n.Children {
		c.walkLeaves(fn)
	}
}

// Size returns the number of nodes in n, leaves included.
func (n *Node) Size() int {
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// Depth returns the number of interior nodes on the longest path from n to
// a leaf. A leaf has depth 0.
func (n *Node) Depth() int {
	if n.Terminal {
		return 0
	}
	depth := 1
	for _, c := range n.Children {
		if d := 1 + c.Depth(); d > depth {
			depth = d
		}
	}
	return depth
}

// Equal reports whether n and other are structurally identical.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Label != other.Label || n.Terminal != other.Terminal || len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Key returns a structural encoding of n: two trees have the same key
// exactly when they are Equal.
func (n *Node) Key() string {
	return n.String()
}

// Pretty renders n in bracket form across several lines. Nodes whose
// children are all leaves stay on one line.
func (n *Node) Pretty() string {
	var sb strings.Builder
	n.pretty(&sb, 0)
	return sb.String()
}

func (n *Node) pretty(sb *strings.Builder, level int) {
	if n.Terminal || n.flat() {
		sb.WriteString(n.String())
		return
	}
	sb.WriteByte('(')
	sb.WriteString(quoteAtom(n.Label))
	for _, c := range n.Children {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", level+1))
		c.pretty(sb, level+1)
	}
	sb.WriteByte(')')
}

func (n *Node) flat() bool {
	for _, c := range n.Children {
		if !c.Terminal {
			return false
		}
	}
	return true
}
