// Package cnf compiles context-free grammars into the lexical, unary and
// binary rule tables used by chart parsing.
package cnf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dhamidi/gram/cfg"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gram.cnf")

// SymbolID identifies a nonterminal of a compiled grammar.
type SymbolID int32

// Pair is the right-hand side of a binary rule.
type Pair struct {
	Left  SymbolID
	Right SymbolID
}

// Kind tells user symbols apart from the helpers introduced by Compile.
type Kind uint8

const (
	// KindUser is a nonterminal of the source grammar.
	KindUser Kind = iota
	// KindTerminal stands in for a terminal inside a binary rule.
	KindTerminal
	// KindBinary is an intermediate node of a right-folded long rule.
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindTerminal:
		return "terminal"
	case KindBinary:
		return "binary"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Grammar is a compiled grammar. Lexical maps a terminal to the symbols that
// derive it, Unary maps a child to its parents and Binary maps a child pair
// to its parents. Parent lists contain no duplicates.
type Grammar struct {
	Start   string
	Symbols []string
	Kinds   []Kind
	Lexical map[string][]SymbolID
	Unary   map[SymbolID][]SymbolID
	Binary  map[Pair][]SymbolID

	ids map[string]SymbolID
}

// ID returns the id of a symbol name.
func (g *Grammar) ID(name string) (SymbolID, bool) {
	id, ok := g.ids[name]
	return id, ok
}

// Name returns the name of id.
func (g *Grammar) Name(id SymbolID) string {
	return g.Symbols[id]
}

// HelperKind returns the kind of id.
func (g *Grammar) HelperKind(id SymbolID) Kind {
	return g.Kinds[id]
}

// IsHelper reports whether id was introduced by Compile.
func (g *Grammar) IsHelper(id SymbolID) bool {
	return g.Kinds[id] != KindUser
}

type compiler struct {
	g        *Grammar
	reserved map[string]bool
	helpers  int
	termSyms map[string]SymbolID
}

// Compile converts g into lexical, unary and binary tables. Productions with
// an empty right-hand side are dropped. Compile keeps no state between
// calls.
func Compile(g *cfg.Grammar) (*Grammar, error) {
	if g == nil || len(g.Productions) == 0 {
		return nil, cfg.ErrNoProductions
	}

	c := &compiler{
		g: &Grammar{
			Start:   g.Start,
			Lexical: make(map[string][]SymbolID),
			Unary:   make(map[SymbolID][]SymbolID),
			Binary:  make(map[Pair][]SymbolID),
			ids:     make(map[string]SymbolID),
		},
		reserved: make(map[string]bool),
		termSyms: make(map[string]SymbolID),
	}

	nts := g.NonterminalSet()
	for _, p := range g.Productions {
		c.reserved[p.LHS.Name] = true
		for _, s := range p.RHS {
			c.reserved[s.Name] = true
		}
	}
	for _, name := range g.Nonterminals() {
		c.intern(name, KindUser)
	}

	for _, p := range g.Productions {
		lhs := c.g.ids[p.LHS.Name]
		switch len(p.RHS) {
		case 0:
			continue
		case 1:
			only := p.RHS[0]
			if cfg.IsNonterminal(only, nts) {
				c.g.Unary[c.g.ids[only.Name]] = appendUnique(c.g.Unary[c.g.ids[only.Name]], lhs)
			} else {
				c.g.Lexical[only.Name] = appendUnique(c.g.Lexical[only.Name], lhs)
			}
			continue
		}

		rhs := make([]SymbolID, len(p.RHS))
		for i, s := range p.RHS {
			if cfg.IsNonterminal(s, nts) {
				rhs[i] = c.g.ids[s.Name]
			} else {
				rhs[i] = c.terminal(s.Name)
			}
		}
		current := lhs
		for _, left := range rhs[:len(rhs)-2] {
			helper := c.intern(c.helperName("__BIN_"), KindBinary)
			c.binary(current, left, helper)
			current = helper
		}
		c.binary(current, rhs[len(rhs)-2], rhs[len(rhs)-1])
	}

	log.Debugf("compiled %d productions into %d symbols: %d lexical, %d unary, %d binary",
		len(g.Productions), len(c.g.Symbols), len(c.g.Lexical), len(c.g.Unary), len(c.g.Binary))
	return c.g, nil
}

func (c *compiler) intern(name string, kind Kind) SymbolID {
	if id, ok := c.g.ids[name]; ok {
		return id
	}
	id := SymbolID(len(c.g.Symbols))
	c.g.Symbols = append(c.g.Symbols, name)
	c.g.Kinds = append(c.g.Kinds, kind)
	c.g.ids[name] = id
	return id
}

// helperName mints the next unused helper name with the given prefix.
func (c *compiler) helperName(prefix string) string {
	for {
		name := prefix + strconv.Itoa(c.helpers)
		c.helpers++
		if _, taken := c.g.ids[name]; !taken && !c.reserved[name] {
			return name
		}
	}
}

// terminal returns the helper standing in for a terminal inside a binary
// rule, registering its lexical rule the first time.
func (c *compiler) terminal(surface string) SymbolID {
	if id, ok := c.termSyms[surface]; ok {
		return id
	}
	id := c.intern(c.helperName("__TERM_"), KindTerminal)
	c.termSyms[surface] = id
	c.g.Lexical[surface] = appendUnique(c.g.Lexical[surface], id)
	return id
}

func (c *compiler) binary(parent, left, right SymbolID) {
	key := Pair{Left: left, Right: right}
	c.g.Binary[key] = appendUnique(c.g.Binary[key], parent)
}

func appendUnique(list []SymbolID, id SymbolID) []SymbolID {
	for _, x := range list {
		if x == id {
			return list
		}
	}
	return append(list, id)
}

// WriteTo writes the rule tables in the grammar notation, each section
// sorted so the output is deterministic.
func (g *Grammar) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# start %s\n", g.Start)

	var lines []string
	for surface, parents := range g.Lexical {
		for _, p := range parents {
			lines = append(lines, fmt.Sprintf("%s -> %s", g.Name(p), cfg.Symbol{Name: surface, Terminal: true}))
		}
	}
	writeSection(&buf, "lexical", lines)

	lines = lines[:0]
	for child, parents := range g.Unary {
		for _, p := range parents {
			lines = append(lines, fmt.Sprintf("%s -> %s", g.Name(p), g.Name(child)))
		}
	}
	writeSection(&buf, "unary", lines)

	lines = lines[:0]
	for pair, parents := range g.Binary {
		for _, p := range parents {
			lines = append(lines, fmt.Sprintf("%s -> %s %s", g.Name(p), g.Name(pair.Left), g.Name(pair.Right)))
		}
	}
	writeSection(&buf, "binary", lines)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func writeSection(buf *bytes.Buffer, title string, lines []string) {
	sort.Strings(lines)
	fmt.Fprintf(buf, "# %s (%d)\n", title, len(lines))
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}
