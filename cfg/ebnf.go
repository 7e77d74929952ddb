package cfg

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

var (
	// ErrUnreachable reports a nonterminal that the start symbol never
	// derives.
	ErrUnreachable = errors.New("unreachable nonterminal")

	// ErrMissingStart reports a start symbol without productions.
	ErrMissingStart = errors.New("no production for start symbol")

	// ErrUndefined reports a nonterminal that is used but never defined.
	ErrUndefined = errors.New("undefined nonterminal")
)

var (
	verifyMessage   = regexp.MustCompile(`^<input>(?::(\d+):(\d+))?: (.*)$`)
	unreachableMsg  = regexp.MustCompile(`^(\S+) is unreachable$`)
	missingStartMsg = regexp.MustCompile(`^no start production (\S+)$`)
	missingProdMsg  = regexp.MustCompile(`^missing production (\S+)$`)
)

// ebnfExport is an x/exp/ebnf rendering of a grammar together with the
// mapping between grammar names and exported production names.
type ebnfExport struct {
	grammar ebnf.Grammar
	order   []string
	names   map[string]string
	source  map[string]string
}

func newEBNFExport(reserved []string) *ebnfExport {
	x := &ebnfExport{
		grammar: make(ebnf.Grammar),
		names:   make(map[string]string),
		source:  make(map[string]string),
	}
	for _, name := range reserved {
		x.source[name] = name
	}
	return x
}

// name returns the production name for a grammar nonterminal. Names whose
// first rune is not upper case are lexical to x/exp/ebnf, so they get an
// N_ prefix.
func (x *ebnfExport) name(n string) string {
	if out, ok := x.names[n]; ok {
		return out
	}
	out := n
	if ch, _ := utf8.DecodeRuneInString(n); !unicode.IsUpper(ch) {
		out = "N_" + n
		for {
			if _, taken := x.source[out]; !taken {
				break
			}
			out += "_"
		}
	}
	x.names[n] = out
	x.source[out] = n
	return out
}

func (x *ebnfExport) add(lhs string, pos Position, rhs []ebnf.Expression) {
	name := x.name(lhs)
	prod, ok := x.grammar[name]
	if !ok {
		prod = &ebnf.Production{
			Name: &ebnf.Name{StringPos: scannerPos(pos), String: name},
			Expr: ebnf.Alternative{},
		}
		x.grammar[name] = prod
		x.order = append(x.order, name)
	}
	var seq ebnf.Expression = ebnf.Sequence(rhs)
	if len(rhs) == 1 {
		seq = rhs[0]
	}
	prod.Expr = append(prod.Expr.(ebnf.Alternative), seq)
}

func scannerPos(p Position) scanner.Position {
	return scanner.Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

func (x *ebnfExport) expr(s Symbol, nonterminal bool, pos Position) ebnf.Expression {
	if nonterminal {
		return &ebnf.Name{StringPos: scannerPos(pos), String: x.name(s.Name)}
	}
	return &ebnf.Token{StringPos: scannerPos(pos), String: s.Name}
}

func exportGrammar(g *Grammar, nonterminal func(Symbol) bool, keepFilename bool) *ebnfExport {
	x := newEBNFExport(g.Nonterminals())
	for _, p := range g.Productions {
		pos := p.Pos
		if !keepFilename {
			pos.Filename = ""
		}
		rhs := make([]ebnf.Expression, 0, len(p.RHS))
		for _, s := range p.RHS {
			rhs = append(rhs, x.expr(s, nonterminal(s), pos))
		}
		x.add(p.LHS.Name, pos, rhs)
	}
	return x
}

// ToEBNF converts g into an x/exp/ebnf grammar with one production per
// left-hand side. Nonterminal names that x/exp/ebnf would treat as lexical
// are exported with an N_ prefix.
func ToEBNF(g *Grammar) ebnf.Grammar {
	nts := g.NonterminalSet()
	return exportGrammar(g, func(s Symbol) bool { return IsNonterminal(s, nts) }, true).grammar
}

// Verify checks that every nonterminal is reachable from the start symbol
// and that the start symbol has productions. The findings are warnings: the
// grammar remains usable. Each returned error is a *Error.
func Verify(g *Grammar) []error {
	nts := g.NonterminalSet()
	return verify(g, g.Start, func(s Symbol) bool { return IsNonterminal(s, nts) })
}

// VerifyFeature runs Verify over the base categories of a feature grammar.
// Unquoted symbols without productions are reported as undefined.
func VerifyFeature(g *FeatureGrammar) []error {
	plain := &Grammar{Start: g.Start.Base}
	for _, p := range g.Productions {
		rhs := make([]Symbol, 0, len(p.RHS))
		for _, s := range p.RHS {
			rhs = append(rhs, Symbol{Name: s.Base, Terminal: s.Terminal})
		}
		plain.Productions = append(plain.Productions, Production{
			LHS: Symbol{Name: p.LHS.Base},
			RHS: rhs,
			Pos: p.Pos,
		})
	}
	return verify(plain, plain.Start, func(s Symbol) bool { return !s.Terminal })
}

func verify(g *Grammar, start string, nonterminal func(Symbol) bool) []error {
	if g == nil || len(g.Productions) == 0 {
		return []error{ErrNoProductions}
	}
	filename := g.Productions[0].Pos.Filename
	x := exportGrammar(g, nonterminal, false)
	err := ebnf.Verify(x.grammar, x.name(start))
	if err == nil {
		return nil
	}

	var errs []*Error
	for _, e := range splitErrors(err) {
		errs = append(errs, x.translate(e, filename))
	}
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Pos.Line != errs[j].Pos.Line {
			return errs[i].Pos.Line < errs[j].Pos.Line
		}
		if errs[i].Pos.Column != errs[j].Pos.Column {
			return errs[i].Pos.Column < errs[j].Pos.Column
		}
		return errs[i].Err.Error() < errs[j].Err.Error()
	})
	out := make([]error, 0, len(errs))
	for _, e := range errs {
		out = append(out, e)
	}
	log.Debugf("verify %q: %d findings", filename, len(out))
	return out
}

// splitErrors unpacks the error list returned by ebnf.Verify.
func splitErrors(err error) []error {
	v := reflect.ValueOf(err)
	if v.Kind() != reflect.Slice {
		return []error{err}
	}
	var out []error
	for i := 0; i < v.Len(); i++ {
		if e, ok := v.Index(i).Interface().(error); ok {
			out = append(out, e)
		}
	}
	return out
}

func (x *ebnfExport) translate(err error, filename string) *Error {
	m := verifyMessage.FindStringSubmatch(err.Error())
	if m == nil {
		return &Error{Pos: Position{Filename: filename}, Err: err}
	}
	pos := Position{Filename: filename}
	pos.Line, _ = strconv.Atoi(m[1])
	pos.Column, _ = strconv.Atoi(m[2])

	msg := m[3]
	switch {
	case unreachableMsg.MatchString(msg):
		name := x.original(unreachableMsg.FindStringSubmatch(msg)[1])
		return &Error{Pos: pos, Err: fmt.Errorf("%w: %s", ErrUnreachable, name)}
	case missingStartMsg.MatchString(msg):
		name := x.original(missingStartMsg.FindStringSubmatch(msg)[1])
		return &Error{Pos: pos, Err: fmt.Errorf("%w: %s", ErrMissingStart, name)}
	case missingProdMsg.MatchString(msg):
		name := x.original(missingProdMsg.FindStringSubmatch(msg)[1])
		return &Error{Pos: pos, Err: fmt.Errorf("%w: %s", ErrUndefined, name)}
	}
	return &Error{Pos: pos, Err: errors.New(msg)}
}

func (x *ebnfExport) original(name string) string {
	if n, ok := x.source[name]; ok {
		return n
	}
	return name
}

// WriteEBNF prints g in EBNF notation, one production per left-hand side in
// order of first appearance.
func WriteEBNF(w io.Writer, g *Grammar) error {
	nts := g.NonterminalSet()
	x := exportGrammar(g, func(s Symbol) bool { return IsNonterminal(s, nts) }, true)
	for _, name := range x.order {
		prod := x.grammar[name]
		var alts []string
		for _, alt := range prod.Expr.(ebnf.Alternative) {
			alts = append(alts, formatExpr(alt))
		}
		if _, err := fmt.Fprintf(w, "%s = %s .\n", name, strings.Join(alts, " | ")); err != nil {
			return err
		}
	}
	return nil
}

func formatExpr(e ebnf.Expression) string {
	switch e := e.(type) {
	case *ebnf.Name:
		return e.String
	case *ebnf.Token:
		return strconv.Quote(e.String)
	case ebnf.Sequence:
		parts := make([]string, 0, len(e))
		for _, item := range e {
			parts = append(parts, formatExpr(item))
		}
		return strings.Join(parts, " ")
	}
	return ""
}
