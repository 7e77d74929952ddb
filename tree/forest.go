package tree

import (
	"strconv"
	"strings"
)

// ID refers to a node in a Forest.
type ID int32

type forestNode struct {
	label string
	leaf  bool
	kids  []ID
	size  int
}

// Forest is an arena of hash-consed nodes. Structurally identical subtrees
// share one ID, so comparing IDs compares trees and a subtree used under
// several parents is stored once.
type Forest struct {
	nodes []forestNode
	index map[string]ID
	key   strings.Builder
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{index: make(map[string]ID)}
}

// Leaf returns the ID of the terminal node labelled surface.
func (f *Forest) Leaf(surface string) ID {
	f.key.Reset()
	f.key.WriteByte('L')
	f.key.WriteString(surface)
	return f.intern(forestNode{label: surface, leaf: true, size: 1})
}

// Node returns the ID of the interior node with the given label and
// children.
func (f *Forest) Node(label string, kids ...ID) ID {
	f.key.Reset()
	f.key.WriteByte('N')
	f.key.WriteString(strconv.Itoa(len(label)))
	f.key.WriteByte(':')
	f.key.WriteString(label)
	size := 1
	for _, k := range kids {
		f.key.WriteByte(',')
		f.key.WriteString(strconv.Itoa(int(k)))
		size += f.nodes[k].size
	}
	return f.intern(forestNode{label: label, kids: kids, size: size})
}

func (f *Forest) intern(n forestNode) ID {
	key := f.key.String()
	if id, ok := f.index[key]; ok {
		return id
	}
	if n.kids != nil {
		n.kids = append([]ID(nil), n.kids...)
	}
	id := ID(len(f.nodes))
	f.nodes = append(f.nodes, n)
	f.index[key] = id
	return id
}

// Label returns the label of id.
func (f *Forest) Label(id ID) string {
	return f.nodes[id].label
}

// Children returns the children of id. The slice must not be modified.
func (f *Forest) Children(id ID) []ID {
	return f.nodes[id].kids
}

// IsLeaf reports whether id is a terminal node.
func (f *Forest) IsLeaf(id ID) bool {
	return f.nodes[id].leaf
}

// Size returns the node count of the tree rooted at id, leaves included.
func (f *Forest) Size(id ID) int {
	return f.nodes[id].size
}

// Len returns the number of distinct nodes in the forest.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Tree materializes id as a freshly allocated tree.
func (f *Forest) Tree(id ID) *Node {
	n := f.nodes[id]
	if n.leaf {
		return NewLeaf(n.label)
	}
	children := make([]*Node, len(n.kids))
	for i, k := range n.kids {
		children[i] = f.Tree(k)
	}
	return &Node{Label: n.label, Children: children}
}
