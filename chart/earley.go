package chart

import (
	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/tree"
)

// item is an Earley item: a production with a dot position and the chart
// position where it started.
type item struct {
	prod   int
	dot    int
	origin int
}

// itemSet is the set of Earley items at one chart position.
type itemSet struct {
	items []item
	seen  map[item]bool
}

func newItemSet() *itemSet {
	return &itemSet{seen: make(map[item]bool)}
}

func (s *itemSet) add(it item) bool {
	if s.seen[it] {
		return false
	}
	s.seen[it] = true
	s.items = append(s.items, it)
	return true
}

// recognizer runs Earley predict, scan and complete steps over the
// productions of a grammar. Empty productions are ignored, matching the
// chart parser.
type recognizer struct {
	grammar *cfg.Grammar
	nts     map[string]bool
	byLHS   map[string][]int
	chart   []*itemSet
}

func newRecognizer(g *cfg.Grammar) *recognizer {
	r := &recognizer{
		grammar: g,
		nts:     g.NonterminalSet(),
		byLHS:   make(map[string][]int),
	}
	for i, p := range g.Productions {
		if len(p.RHS) == 0 {
			continue
		}
		r.byLHS[p.LHS.Name] = append(r.byLHS[p.LHS.Name], i)
	}
	return r
}

func (r *recognizer) complete(it item) bool {
	return it.dot >= len(r.grammar.Productions[it.prod].RHS)
}

func (r *recognizer) next(it item) cfg.Symbol {
	return r.grammar.Productions[it.prod].RHS[it.dot]
}

func (r *recognizer) run(tokens []string, start string) bool {
	n := len(tokens)
	r.chart = make([]*itemSet, n+1)
	for i := range r.chart {
		r.chart[i] = newItemSet()
	}
	for _, prod := range r.byLHS[start] {
		r.chart[0].add(item{prod: prod})
	}

	for i := 0; i <= n; i++ {
		// Items may be added to chart[i] while it is processed.
		for j := 0; j < len(r.chart[i].items); j++ {
			it := r.chart[i].items[j]
			switch {
			case r.complete(it):
				r.completeItem(i, it)
			case cfg.IsNonterminal(r.next(it), r.nts):
				for _, prod := range r.byLHS[r.next(it).Name] {
					r.chart[i].add(item{prod: prod, origin: i})
				}
			case i < n && r.next(it).Name == tokens[i]:
				r.chart[i+1].add(item{prod: it.prod, dot: it.dot + 1, origin: it.origin})
			}
		}
	}

	for _, it := range r.chart[n].items {
		if it.origin == 0 && r.complete(it) && r.grammar.Productions[it.prod].LHS.Name == start {
			return true
		}
	}
	return false
}

// completeItem advances the items at the origin of a completed item that
// were waiting for its left-hand side.
func (r *recognizer) completeItem(pos int, done item) {
	lhs := r.grammar.Productions[done.prod].LHS.Name
	waiting := r.chart[done.origin]
	for j := 0; j < len(waiting.items); j++ {
		it := waiting.items[j]
		if r.complete(it) {
			continue
		}
		if next := r.next(it); cfg.IsNonterminal(next, r.nts) && next.Name == lhs {
			r.chart[pos].add(item{prod: it.prod, dot: it.dot + 1, origin: it.origin})
		}
	}
}

// Recognize reports whether tokens derive from start under g. An empty
// start uses the grammar's start symbol.
func Recognize(tokens []string, g *cfg.Grammar, start string) bool {
	if g == nil || len(tokens) == 0 {
		return false
	}
	if start == "" {
		start = g.Start
	}
	ok := newRecognizer(g).run(tokens, start)
	log.Debugf("earley over %d tokens from %s: %v", len(tokens), start, ok)
	return ok
}

// EarleyParse recognizes tokens first and builds the chart only for input
// in the language.
func EarleyParse(tokens []string, g *cfg.Grammar, opts ...Option) ([]*tree.Node, error) {
	if g == nil {
		return nil, cfg.ErrNoProductions
	}
	o := buildOptions(g.Start, opts)
	if !Recognize(tokens, g, o.start) {
		return nil, nil
	}
	return Parse(tokens, g, opts...)
}
