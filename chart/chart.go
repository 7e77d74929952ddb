// Package chart implements CYK chart parsing over compiled grammars and an
// Earley recognizer over plain context-free grammars.
package chart

import (
	"fmt"
	"sort"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/cnf"
	"github.com/dhamidi/gram/tree"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gram.chart")

// DefaultMaxTrees is the default cap on results and on the trees kept per
// symbol and span.
const DefaultMaxTrees = 8

type options struct {
	maxTrees int
	start    string
}

// Option configures a parse.
type Option func(*options)

// WithMaxTrees caps the number of trees kept per symbol per span and the
// number of results. Values below 1 are treated as 1.
func WithMaxTrees(n int) Option {
	return func(o *options) {
		o.maxTrees = n
	}
}

// WithStart overrides the grammar's start symbol.
func WithStart(name string) Option {
	return func(o *options) {
		o.start = name
	}
}

func buildOptions(start string, opts []Option) options {
	o := options{maxTrees: DefaultMaxTrees, start: start}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxTrees < 1 {
		o.maxTrees = 1
	}
	if o.start == "" {
		o.start = start
	}
	return o
}

// Parse compiles g and parses tokens with it. The only error is a grammar
// that cannot be compiled; input that does not parse yields no trees.
func Parse(tokens []string, g *cfg.Grammar, opts ...Option) ([]*tree.Node, error) {
	c, err := cnf.Compile(g)
	if err != nil {
		return nil, fmt.Errorf("compiling grammar: %w", err)
	}
	return ParseCNF(tokens, c, opts...), nil
}

// cell holds the trees found for one span. Symbols are kept in insertion
// order so that results do not depend on map iteration.
type cell struct {
	order []cnf.SymbolID
	trees map[cnf.SymbolID][]tree.ID
}

func newCell() *cell {
	return &cell{trees: make(map[cnf.SymbolID][]tree.ID)}
}

// add records id under sym unless it is already present or the list is
// full. It reports whether the list grew.
func (c *cell) add(sym cnf.SymbolID, id tree.ID, max int) bool {
	list, ok := c.trees[sym]
	if len(list) >= max {
		return false
	}
	for _, existing := range list {
		if existing == id {
			return false
		}
	}
	if !ok {
		c.order = append(c.order, sym)
	}
	c.trees[sym] = append(list, id)
	return true
}

func (c *cell) full(sym cnf.SymbolID, max int) bool {
	return len(c.trees[sym]) >= max
}

type parser struct {
	grammar *cnf.Grammar
	forest  *tree.Forest
	max     int
	cells   [][]*cell
	visible map[tree.ID][]tree.ID
}

// ParseCNF parses tokens with a compiled grammar. Results are ordered by
// node count, smallest first, and never exceed the tree cap.
func ParseCNF(tokens []string, c *cnf.Grammar, opts ...Option) []*tree.Node {
	o := buildOptions(c.Start, opts)
	n := len(tokens)
	if n == 0 {
		return nil
	}
	start, ok := c.ID(o.start)
	if !ok || c.IsHelper(start) {
		log.Debugf("unknown start symbol %q", o.start)
		return nil
	}

	p := &parser{
		grammar: c,
		forest:  tree.NewForest(),
		max:     o.maxTrees,
		cells:   make([][]*cell, n+1),
		visible: make(map[tree.ID][]tree.ID),
	}
	for i := range p.cells {
		p.cells[i] = make([]*cell, n+1)
	}

	for i, tok := range tokens {
		cl := newCell()
		for _, lhs := range c.Lexical[tok] {
			cl.add(lhs, p.forest.Node(c.Name(lhs), p.forest.Leaf(tok)), p.max)
		}
		p.closeUnary(cl)
		p.cells[i][i+1] = cl
	}

	for span := 2; span <= n; span++ {
		for i := 0; i+span <= n; i++ {
			j := i + span
			cl := newCell()
			for k := i + 1; k < j; k++ {
				p.combine(cl, p.cells[i][k], p.cells[k][j])
			}
			p.closeUnary(cl)
			p.cells[i][j] = cl
		}
	}

	roots := p.cells[0][n].trees[start]
	log.Debugf("chart over %d tokens: %d forest nodes, %d trees for %s", n, p.forest.Len(), len(roots), o.start)
	return p.extract(roots)
}

// combine adds every binary combination of a left and a right subspan.
func (p *parser) combine(cl, left, right *cell) {
	for _, l := range left.order {
		for _, r := range right.order {
			parents := p.grammar.Binary[cnf.Pair{Left: l, Right: r}]
			for _, parent := range parents {
				name := p.grammar.Name(parent)
			trees:
				for _, lt := range left.trees[l] {
					for _, rt := range right.trees[r] {
						if cl.full(parent, p.max) {
							break trees
						}
						cl.add(parent, p.forest.Node(name, lt, rt), p.max)
					}
				}
			}
		}
	}
}

// closeUnary applies unary rules until no list in the cell grows. A parent
// is queued again whenever its list grew, since its own parents may then
// gain trees.
func (p *parser) closeUnary(cl *cell) {
	queue := append([]cnf.SymbolID(nil), cl.order...)
	for len(queue) > 0 {
		sym := queue[0]
		queue = queue[1:]
		children := append([]tree.ID(nil), cl.trees[sym]...)
		for _, parent := range p.grammar.Unary[sym] {
			name := p.grammar.Name(parent)
			grew := false
			for _, child := range children {
				if cl.add(parent, p.forest.Node(name, child), p.max) {
					grew = true
				}
			}
			if grew {
				queue = append(queue, parent)
			}
		}
	}
}

// extract removes helper nodes from the start symbol's trees, drops
// duplicates and orders the result by node count. The count is taken
// before helpers are removed.
func (p *parser) extract(roots []tree.ID) []*tree.Node {
	var ids []tree.ID
	rank := make(map[tree.ID]int)
	for _, root := range roots {
		size := p.forest.Size(root)
		for _, id := range p.unbinarize(root) {
			if _, ok := rank[id]; !ok {
				rank[id] = size
				ids = append(ids, id)
			}
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return rank[ids[i]] < rank[ids[j]]
	})
	if len(ids) > p.max {
		ids = ids[:p.max]
	}

	out := make([]*tree.Node, len(ids))
	for i, id := range ids {
		out[i] = p.forest.Tree(id)
	}
	return out
}

// unbinarize returns the nodes id stands for once helpers are removed: a
// binary helper is replaced by its children and a terminal helper by its
// leaf.
func (p *parser) unbinarize(id tree.ID) []tree.ID {
	if out, ok := p.visible[id]; ok {
		return out
	}
	var out []tree.ID
	if p.forest.IsLeaf(id) {
		out = []tree.ID{id}
	} else {
		var kids []tree.ID
		for _, k := range p.forest.Children(id) {
			kids = append(kids, p.unbinarize(k)...)
		}
		sym, _ := p.grammar.ID(p.forest.Label(id))
		switch p.grammar.HelperKind(sym) {
		case cnf.KindTerminal, cnf.KindBinary:
			out = kids
		default:
			out = []tree.ID{p.forest.Node(p.forest.Label(id), kids...)}
		}
	}
	p.visible[id] = out
	return out
}
