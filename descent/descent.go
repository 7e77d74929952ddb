// Package descent implements a memoized top-down parser for context-free
// grammars.
package descent

import (
	"sort"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/tree"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gram.descent")

type options struct {
	maxTrees int
	maxDepth int
	start    string
}

// Option configures a parse.
type Option func(*options)

// WithMaxTrees caps the number of results. Partial derivations are capped
// at eight times this value.
func WithMaxTrees(n int) Option {
	return func(o *options) {
		o.maxTrees = n
	}
}

// WithMaxDepth bounds the recursion depth. The default is four times the
// number of tokens, and at least 32.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithStart overrides the grammar's start symbol.
func WithStart(name string) Option {
	return func(o *options) {
		o.start = name
	}
}

type result struct {
	id   tree.ID
	next int
}

type partial struct {
	children []tree.ID
	next     int
}

type memoKey struct {
	symbol string
	pos    int
}

type parser struct {
	tokens     []string
	byLHS      map[string][]cfg.Production
	nts        map[string]bool
	forest     *tree.Forest
	maxTrees   int
	maxDepth   int
	memo       map[memoKey][]result
	inProgress map[memoKey]bool
}

// Parse derives tokens top-down from the start symbol. A symbol already
// being expanded at the same position yields nothing, which cuts left
// recursion. Results are memoized per symbol and position.
func Parse(tokens []string, g *cfg.Grammar, opts ...Option) []*tree.Node {
	if g == nil || len(tokens) == 0 {
		return nil
	}
	o := options{maxTrees: 8}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxTrees < 1 {
		o.maxTrees = 1
	}
	if o.maxDepth < 1 {
		o.maxDepth = max(32, 4*len(tokens))
	}
	if o.start == "" {
		o.start = g.Start
	}

	p := &parser{
		tokens:     tokens,
		byLHS:      make(map[string][]cfg.Production),
		nts:        g.NonterminalSet(),
		forest:     tree.NewForest(),
		maxTrees:   o.maxTrees,
		maxDepth:   o.maxDepth,
		memo:       make(map[memoKey][]result),
		inProgress: make(map[memoKey]bool),
	}
	for _, prod := range g.Productions {
		p.byLHS[prod.LHS.Name] = append(p.byLHS[prod.LHS.Name], prod)
	}

	var ids []tree.ID
	for _, r := range p.parseSymbol(o.start, 0, 0) {
		if r.next == len(tokens) {
			ids = append(ids, r.id)
		}
	}
	if len(ids) > o.maxTrees {
		ids = ids[:o.maxTrees]
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return p.forest.Size(ids[i]) < p.forest.Size(ids[j])
	})
	log.Debugf("descent over %d tokens: %d memo entries, %d trees", len(tokens), len(p.memo), len(ids))

	out := make([]*tree.Node, len(ids))
	for i, id := range ids {
		out[i] = p.forest.Tree(id)
	}
	return out
}

func (p *parser) parseSymbol(symbol string, pos, depth int) []result {
	if depth > p.maxDepth {
		return nil
	}
	key := memoKey{symbol, pos}
	if cached, ok := p.memo[key]; ok {
		return cached
	}
	if p.inProgress[key] {
		return nil
	}
	p.inProgress[key] = true

	var out []result
	seen := make(map[result]bool)
	for _, prod := range p.byLHS[symbol] {
		if len(prod.RHS) == 0 {
			continue
		}
		partials := []partial{{next: pos}}
		for _, sym := range prod.RHS {
			var next []partial
			for _, pt := range partials {
				if cfg.IsNonterminal(sym, p.nts) {
					for _, child := range p.parseSymbol(sym.Name, pt.next, depth+1) {
						next = append(next, partial{children: extend(pt.children, child.id), next: child.next})
					}
				} else if pt.next < len(p.tokens) && p.tokens[pt.next] == sym.Name {
					leaf := p.forest.Leaf(sym.Name)
					next = append(next, partial{children: extend(pt.children, leaf), next: pt.next + 1})
				}
			}
			if len(next) > p.maxTrees*8 {
				next = next[:p.maxTrees*8]
			}
			partials = next
			if len(partials) == 0 {
				break
			}
		}
		for _, pt := range partials {
			r := result{id: p.forest.Node(symbol, pt.children...), next: pt.next}
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}

	delete(p.inProgress, key)
	p.memo[key] = out
	return out
}

// extend appends id to a copy of children, so sibling partials never share
// a backing array.
func extend(children []tree.ID, id tree.ID) []tree.ID {
	out := make([]tree.ID, len(children)+1)
	copy(out, children)
	out[len(children)] = id
	return out
}
