package cfg

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gram.cfg")

var (
	identPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	symbolPattern  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[(.*)\])?$`)
	featurePattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^\s,\]]+)$`)
)

type options struct {
	start string
}

// Option configures grammar parsing.
type Option func(*options)

// WithStart overrides the default start symbol, which is the first
// left-hand side in the grammar text. For feature grammars the name may
// carry an annotation such as S[num=?n].
func WithStart(name string) Option {
	return func(o *options) {
		o.start = name
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// rule is one source line split at its arrow.
type rule struct {
	lhs          []Token
	alternatives [][]Token
}

// splitRules extracts rule-shaped lines. Lines without an arrow are skipped.
func splitRules(src []byte, filename string) []rule {
	var rules []rule
	for _, line := range Lines(NewLexer(src, filename).Tokenize()) {
		arrow := -1
		for i, tok := range line {
			if tok.Kind == KindArrow {
				arrow = i
				break
			}
		}
		if arrow < 0 {
			continue
		}
		r := rule{lhs: line[:arrow]}
		var current []Token
		for _, tok := range line[arrow+1:] {
			if tok.Kind == KindBar {
				if len(current) > 0 {
					r.alternatives = append(r.alternatives, current)
				}
				current = nil
				continue
			}
			current = append(current, tok)
		}
		if len(current) > 0 {
			r.alternatives = append(r.alternatives, current)
		}
		rules = append(rules, r)
	}
	return rules
}

func readSource(src io.Reader) ([]byte, error) {
	if src == nil {
		return nil, nil
	}
	return io.ReadAll(src)
}

func noProductions(filename string) error {
	if filename == "" {
		return ErrNoProductions
	}
	return fmt.Errorf("%s: %w", filename, ErrNoProductions)
}

// Parse reads a context-free grammar. Quoted symbols are terminals; bare
// names are nonterminals when some rule expands them and terminals otherwise.
func Parse(filename string, src io.Reader, opts ...Option) (*Grammar, error) {
	o := buildOptions(opts)
	data, err := readSource(src)
	if err != nil {
		return nil, fmt.Errorf("reading grammar: %w", err)
	}

	var productions []Production
	for _, r := range splitRules(data, filename) {
		if len(r.lhs) != 1 || r.lhs[0].Kind != KindName || !identPattern.MatchString(r.lhs[0].Literal) {
			continue
		}
		lhs := Symbol{Name: r.lhs[0].Literal}
		for _, alt := range r.alternatives {
			rhs := make([]Symbol, 0, len(alt))
			for _, tok := range alt {
				rhs = append(rhs, Symbol{Name: tok.Value(), Terminal: tok.Kind == KindLiteral})
			}
			productions = append(productions, Production{LHS: lhs, RHS: rhs, Pos: r.lhs[0].Position})
		}
	}
	if len(productions) == 0 {
		return nil, noProductions(filename)
	}

	g, err := NewGrammar(o.start, productions)
	if err != nil {
		return nil, err
	}
	log.Debugf("parsed grammar %q: %d productions, start %s", filename, len(g.Productions), g.Start)
	return g, nil
}

// ParseString parses grammar text held in memory.
func ParseString(text string, opts ...Option) (*Grammar, error) {
	return Parse("", strings.NewReader(text), opts...)
}

// ParseFeature reads a feature-augmented grammar. Unquoted symbols are
// nonterminals and may carry an annotation in brackets.
func ParseFeature(filename string, src io.Reader, opts ...Option) (*FeatureGrammar, error) {
	o := buildOptions(opts)
	data, err := readSource(src)
	if err != nil {
		return nil, fmt.Errorf("reading grammar: %w", err)
	}

	g := &FeatureGrammar{}
	haveStart := false
	for _, r := range splitRules(data, filename) {
		if len(r.lhs) != 1 {
			continue
		}
		head := r.lhs[0]
		if head.Kind == KindLiteral {
			return nil, &Error{Pos: head.Position, Err: ErrTerminalLHS}
		}
		if head.Kind != KindName || len(r.alternatives) == 0 {
			continue
		}
		lhs := ParseFeatureSymbol(head.Literal)
		if !haveStart {
			g.Start = lhs
			haveStart = true
		}
		for _, alt := range r.alternatives {
			rhs := make([]FeatureSymbol, 0, len(alt))
			for _, tok := range alt {
				if tok.Kind == KindLiteral {
					rhs = append(rhs, FeatureSymbol{Base: tok.Value(), Terminal: true})
					continue
				}
				rhs = append(rhs, ParseFeatureSymbol(tok.Literal))
			}
			g.Productions = append(g.Productions, FeatureProduction{LHS: lhs, RHS: rhs, Pos: head.Position})
		}
	}
	if len(g.Productions) == 0 {
		return nil, noProductions(filename)
	}
	if o.start != "" {
		g.Start = ParseFeatureSymbol(o.start)
	}
	log.Debugf("parsed feature grammar %q: %d productions, start %s", filename, len(g.Productions), g.Start)
	return g, nil
}

// ParseFeatureString parses feature grammar text held in memory.
func ParseFeatureString(text string, opts ...Option) (*FeatureGrammar, error) {
	return ParseFeature("", strings.NewReader(text), opts...)
}

// ParseFeatureSymbol parses a single symbol such as NP[num=?n,wh]. A quoted
// symbol is a terminal. A bare key means key=true. Text that is not a valid
// annotated name becomes the base unchanged.
func ParseFeatureSymbol(raw string) FeatureSymbol {
	raw = strings.TrimSpace(raw)
	if isQuoted(raw) {
		return FeatureSymbol{Base: raw[1 : len(raw)-1], Terminal: true}
	}
	m := symbolPattern.FindStringSubmatch(raw)
	if m == nil {
		return FeatureSymbol{Base: raw}
	}
	return FeatureSymbol{Base: m[1], Features: parseFeatureList(m[2])}
}

func parseFeatureList(list string) Features {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}
	features := make(Features)
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if m := featurePattern.FindStringSubmatch(item); m != nil {
			features[m[1]] = m[2]
		} else {
			features[item] = "true"
		}
	}
	if len(features) == 0 {
		return nil
	}
	return features
}

// HasFeatures reports whether grammar text uses feature annotations.
func HasFeatures(text string) bool {
	for _, tok := range NewLexer([]byte(text), "").Tokenize() {
		if tok.Kind == KindName && strings.Contains(tok.Literal, "[") {
			return true
		}
	}
	return false
}
