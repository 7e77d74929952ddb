package tree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrSyntax is returned for malformed bracket notation.
var ErrSyntax = errors.New("invalid bracket tree")

// String renders n in bracket form, (Label child child). Atoms that are
// empty or contain blanks, parentheses, quotes or unprintable runes are
// written as Go quoted strings.
func (n *Node) String() string {
	var sb strings.Builder
	n.writeBracket(&sb)
	return sb.String()
}

func (n *Node) writeBracket(sb *strings.Builder) {
	if n.Terminal {
		sb.WriteString(quoteAtom(n.Label))
		return
	}
	sb.WriteByte('(')
	sb.WriteString(quoteAtom(n.Label))
	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.writeBracket(sb)
	}
	sb.WriteByte(')')
}

func quoteAtom(s string) string {
	if needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '"':
			return true
		case unicode.IsSpace(r) || !unicode.IsPrint(r) || r == utf8.RuneError:
			return true
		}
	}
	return false
}

// ParseBracketed parses the bracket form produced by String. A bare atom
// outside parentheses is a leaf.
func ParseBracketed(s string) (*Node, error) {
	p := &bracketParser{input: s}
	p.skipSpace()
	n, err := p.item()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected %q after tree", p.input[p.pos:])
	}
	return n, nil
}

type bracketParser struct {
	input string
	pos   int
}

func (p *bracketParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *bracketParser) skipSpace() {
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *bracketParser) item() (*Node, error) {
	if p.pos >= len(p.input) {
		return nil, p.errorf("unexpected end of input")
	}
	switch p.input[p.pos] {
	case '(':
		return p.node()
	case ')':
		return nil, p.errorf("unexpected ')'")
	}
	atom, err := p.atom()
	if err != nil {
		return nil, err
	}
	return NewLeaf(atom), nil
}

func (p *bracketParser) node() (*Node, error) {
	p.pos++
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] == '(' || p.input[p.pos] == ')' {
		return nil, p.errorf("missing label")
	}
	label, err := p.atom()
	if err != nil {
		return nil, err
	}
	n := &Node{Label: label}
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated tree %q", label)
		}
		if p.input[p.pos] == ')' {
			p.pos++
			return n, nil
		}
		child, err := p.item()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
}

func (p *bracketParser) atom() (string, error) {
	start := p.pos
	if p.input[p.pos] == '"' {
		p.pos++
		for p.pos < len(p.input) {
			switch p.input[p.pos] {
			case '\\':
				p.pos += 2
				continue
			case '"':
				p.pos++
				s, err := strconv.Unquote(p.input[start:p.pos])
				if err != nil {
					return "", p.errorf("bad quoted atom: %v", err)
				}
				return s, nil
			}
			p.pos++
		}
		return "", p.errorf("unterminated quoted atom")
	}
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if r == '(' || r == ')' || unicode.IsSpace(r) {
			break
		}
		p.pos += size
	}
	return p.input[start:p.pos], nil
}
