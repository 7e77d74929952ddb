// Package feature implements a unification-based parser for
// feature-augmented context-free grammars.
package feature

import (
	"strconv"
	"strings"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/tree"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gram.feature")

const (
	// DefaultMaxTrees is the default number of results.
	DefaultMaxTrees = 8

	// maxInFlight is how many expansions of one category may be active at
	// one token position at the same time.
	maxInFlight = 4

	// scopeSep separates a variable from the production attempt it
	// belongs to.
	scopeSep = "\x00"
)

type options struct {
	maxTrees int
	maxDepth int
	start    *cfg.FeatureSymbol
}

// Option configures a parse.
type Option func(*options)

// WithMaxTrees caps the number of results. Intermediate state sets are
// capped at twelve times this value and per-category results at eight
// times.
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

// WithStart overrides the grammar's start symbol. Its features act as
// constraints on the parse.
func WithStart(start cfg.FeatureSymbol) Option {
	return func(o *options) {
		o.start = &start
	}
}

// WithStartString is WithStart with the symbol given in grammar notation,
// for example S[num=?n].
func WithStartString(start string) Option {
	return WithStart(cfg.ParseFeatureSymbol(start))
}

type result struct {
	id   tree.ID
	next int
	env  Env
}

type state struct {
	next     int
	children []tree.ID
	env      Env
}

type guardKey struct {
	base string
	pos  int
}

type dedupeKey struct {
	next int
	id   tree.ID
}

type parser struct {
	tokens   []string
	byBase   map[string][]cfg.FeatureProduction
	forest   *tree.Forest
	maxTrees int
	maxDepth int
	guard    map[guardKey]int
	scopes   int
	trips    int
}

// Parse derives tokens from the start symbol by backtracking search,
// unifying feature constraints along the way. Only derivations covering
// every token are returned, in the order they were found. Ungrammatical
// input and constraint violations yield no trees.
func Parse(tokens []string, g *cfg.FeatureGrammar, opts ...Option) []*tree.Node {
	if g == nil || len(tokens) == 0 {
		return nil
	}
	o := options{maxTrees: DefaultMaxTrees}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxTrees < 1 {
		o.maxTrees = 1
	}
	if o.maxDepth < 1 {
		o.maxDepth = max(32, 4*len(tokens))
	}
	start := g.Start
	if o.start != nil {
		start = *o.start
	}

	p := &parser{
		tokens:   tokens,
		byBase:   make(map[string][]cfg.FeatureProduction),
		forest:   tree.NewForest(),
		maxTrees: o.maxTrees,
		maxDepth: o.maxDepth,
		guard:    make(map[guardKey]int),
	}
	for _, prod := range g.Productions {
		p.byBase[prod.LHS.Base] = append(p.byBase[prod.LHS.Base], prod)
	}

	var out []*tree.Node
	for _, r := range p.parseNonterminal(start.Base, start.Features, 0, make(Env), 0) {
		if r.next != len(tokens) {
			continue
		}
		out = append(out, p.forest.Tree(r.id))
		if len(out) == o.maxTrees {
			break
		}
	}
	log.Debugf("feature parse over %d tokens from %s: %d attempts, %d guard trips, %d trees",
		len(tokens), start, p.scopes, p.trips, len(out))
	return out
}

func (p *parser) parseNonterminal(base string, constraints cfg.Features, pos int, env Env, depth int) []result {
	if depth > p.maxDepth {
		return nil
	}
	key := guardKey{base, pos}
	active := p.guard[key]
	if active >= maxInFlight {
		p.trips++
		return nil
	}
	p.guard[key] = active + 1
	defer func() { p.guard[key] = active }()

	var out []result
	seen := make(map[dedupeKey]bool)
	for _, prod := range p.byBase[base] {
		if len(prod.RHS) == 0 {
			continue
		}
		p.scopes++
		scope := strconv.Itoa(p.scopes)
		lhs := standardize(prod.LHS.Features, scope)

		attempt := env.Clone()
		if !unifyConstraints(lhs, constraints, attempt) {
			continue
		}

		states := []state{{next: pos, env: attempt}}
		for _, sym := range prod.RHS {
			var next []state
			for _, st := range states {
				if sym.Terminal {
					if st.next < len(p.tokens) && p.tokens[st.next] == sym.Base {
						leaf := p.forest.Leaf(sym.Base)
						next = append(next, state{next: st.next + 1, children: extend(st.children, leaf), env: st.env})
					}
					continue
				}
				sub := standardize(sym.Features, scope)
				for _, child := range p.parseNonterminal(sym.Base, sub, st.next, st.env.Clone(), depth+1) {
					next = append(next, state{next: child.next, children: extend(st.children, child.id), env: child.env})
				}
			}
			if len(next) > p.maxTrees*12 {
				next = next[:p.maxTrees*12]
			}
			states = next
			if len(states) == 0 {
				break
			}
		}

		for _, st := range states {
			label := Label(base, resolveFeatures(lhs, constraints, st.env))
			id := p.forest.Node(label, st.children...)
			k := dedupeKey{next: st.next, id: id}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, result{id: id, next: st.next, env: st.env})
		}
	}

	if len(out) > p.maxTrees*8 {
		out = out[:p.maxTrees*8]
	}
	return out
}

// standardize renames the variables of a production attempt apart from
// every other attempt.
func standardize(f cfg.Features, scope string) cfg.Features {
	if len(f) == 0 {
		return nil
	}
	out := make(cfg.Features, len(f))
	for k, v := range f {
		if IsVariable(v) {
			v = v + scopeSep + scope
		}
		out[k] = v
	}
	return out
}

// unifyConstraints unifies each constrained key with the production's value
// for it. The production must specify every constrained key.
func unifyConstraints(pattern, constraints cfg.Features, env Env) bool {
	for _, k := range constraints.Keys() {
		value, ok := pattern[k]
		if !ok {
			return false
		}
		if !env.Unify(value, constraints[k]) {
			return false
		}
	}
	return true
}

// resolveFeatures resolves the production's features and overlays the
// caller's constraints.
func resolveFeatures(lhs, constraints cfg.Features, env Env) cfg.Features {
	if len(lhs) == 0 && len(constraints) == 0 {
		return nil
	}
	out := make(cfg.Features, len(lhs)+len(constraints))
	for k, v := range lhs {
		out[k] = display(env.Resolve(v))
	}
	for k, v := range constraints {
		out[k] = display(env.Resolve(v))
	}
	return out
}

// display drops the attempt scope from a variable.
func display(value string) string {
	if i := strings.Index(value, scopeSep); i >= 0 {
		return value[:i]
	}
	return value
}

// Label renders a category with its features as base[k=v,...], keys
// sorted. A category without features is rendered as its base.
func Label(base string, features cfg.Features) string {
	return cfg.FeatureSymbol{Base: base, Features: features}.String()
}

func extend(children []tree.ID, id tree.ID) []tree.ID {
	out := make([]tree.ID, len(children)+1)
	copy(out, children)
	out[len(children)] = id
	return out
}
