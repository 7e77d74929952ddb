// Package cfg provides context-free and feature-augmented grammars and the
// line-oriented text notation they are written in.
package cfg

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoProductions is returned when grammar text yields no usable rule.
	ErrNoProductions = errors.New("grammar contains no productions")

	// ErrTerminalLHS is returned when the left-hand side of a feature rule
	// is a quoted terminal.
	ErrTerminalLHS = errors.New("left-hand side cannot be a terminal")
)

// Error is a grammar construction error tied to a source position.
type Error struct {
	Pos Position
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Symbol is a grammar symbol. Terminal symbols are named by their surface
// form.
type Symbol struct {
	Name     string
	Terminal bool
}

func (s Symbol) String() string {
	if s.Terminal {
		return quote(s.Name)
	}
	return s.Name
}

// Production rewrites LHS into the sequence RHS. Alternatives of a rule are
// separate productions sharing the same LHS.
type Production struct {
	LHS Symbol
	RHS []Symbol
	Pos Position
}

func (p Production) String() string {
	parts := make([]string, 0, len(p.RHS))
	for _, s := range p.RHS {
		parts = append(parts, s.String())
	}
	return fmt.Sprintf("%s -> %s", p.LHS.Name, strings.Join(parts, " "))
}

// Grammar is a context-free grammar. It is not modified after construction.
type Grammar struct {
	Start       string
	Productions []Production
}

// NewGrammar creates a grammar from productions. An empty start symbol
// defaults to the LHS of the first production.
func NewGrammar(start string, productions []Production) (*Grammar, error) {
	if len(productions) == 0 {
		return nil, ErrNoProductions
	}
	if start == "" {
		start = productions[0].LHS.Name
	}
	return &Grammar{Start: start, Productions: productions}, nil
}

// Nonterminals returns the names appearing as a left-hand side, in order of
// first appearance.
func (g *Grammar) Nonterminals() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range g.Productions {
		if !seen[p.LHS.Name] {
			seen[p.LHS.Name] = true
			names = append(names, p.LHS.Name)
		}
	}
	return names
}

// NonterminalSet returns the left-hand side names as a set.
func (g *Grammar) NonterminalSet() map[string]bool {
	set := make(map[string]bool, len(g.Productions))
	for _, p := range g.Productions {
		set[p.LHS.Name] = true
	}
	return set
}

// IsNonterminal reports whether s is expanded by some production. Bare names
// that never appear on a left-hand side act as terminals.
func IsNonterminal(s Symbol, nonterminals map[string]bool) bool {
	return !s.Terminal && nonterminals[s.Name]
}

// Terminals returns the terminal strings of the grammar, in order of first
// appearance.
func (g *Grammar) Terminals() []string {
	nts := g.NonterminalSet()
	seen := make(map[string]bool)
	var out []string
	for _, p := range g.Productions {
		for _, s := range p.RHS {
			if IsNonterminal(s, nts) || seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			out = append(out, s.Name)
		}
	}
	return out
}

// ByLHS returns the productions expanding name.
func (g *Grammar) ByLHS(name string) []Production {
	var out []Production
	for _, p := range g.Productions {
		if p.LHS.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// String renders the grammar in the notation accepted by ParseString.
func (g *Grammar) String() string {
	var sb strings.Builder
	for _, p := range g.Productions {
		sb.WriteString(p.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Features maps attribute names to values. Values starting with '?' are
// variables.
type Features map[string]string

// Keys returns the attribute names in sorted order.
func (f Features) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f Features) String() string {
	parts := make([]string, 0, len(f))
	for _, k := range f.Keys() {
		parts = append(parts, k+"="+f[k])
	}
	return strings.Join(parts, ",")
}

// FeatureSymbol is a symbol of a feature grammar.
type FeatureSymbol struct {
	Base     string
	Features Features
	Terminal bool
}

func (s FeatureSymbol) String() string {
	if s.Terminal {
		return quote(s.Base)
	}
	if len(s.Features) == 0 {
		return s.Base
	}
	return s.Base + "[" + s.Features.String() + "]"
}

// FeatureProduction is a production over feature symbols.
type FeatureProduction struct {
	LHS FeatureSymbol
	RHS []FeatureSymbol
	Pos Position
}

func (p FeatureProduction) String() string {
	parts := make([]string, 0, len(p.RHS))
	for _, s := range p.RHS {
		parts = append(parts, s.String())
	}
	return fmt.Sprintf("%s -> %s", p.LHS, strings.Join(parts, " "))
}

// FeatureGrammar is a feature-augmented context-free grammar.
type FeatureGrammar struct {
	Start       FeatureSymbol
	Productions []FeatureProduction
}

// Nonterminals returns the LHS base categories in order of first appearance.
func (g *FeatureGrammar) Nonterminals() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range g.Productions {
		if !seen[p.LHS.Base] {
			seen[p.LHS.Base] = true
			names = append(names, p.LHS.Base)
		}
	}
	return names
}

// ByLHS returns the productions whose LHS base is base.
func (g *FeatureGrammar) ByLHS(base string) []FeatureProduction {
	var out []FeatureProduction
	for _, p := range g.Productions {
		if p.LHS.Base == base {
			out = append(out, p)
		}
	}
	return out
}

func (g *FeatureGrammar) String() string {
	var sb strings.Builder
	for _, p := range g.Productions {
		sb.WriteString(p.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
