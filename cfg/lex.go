package cfg

import (
	"fmt"
	"io"
	"strings"
)

// Token kinds produced by the Lexer.
const (
	KindName    = "Name"
	KindLiteral = "Literal"
	KindArrow   = "Arrow"
	KindBar     = "Bar"
	KindComment = "Comment"
	KindNewline = "Newline"
	KindEOF     = "EOF"
)

// Position represents a location in grammar source.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token of the grammar notation with its position.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// Value returns the token text with surrounding quotes removed for literals.
func (t Token) Value() string {
	if t.Kind == KindLiteral && isQuoted(t.Literal) {
		return t.Literal[1 : len(t.Literal)-1]
	}
	return t.Literal
}

// Lexer splits grammar text into tokens. Rules are line oriented, so line
// breaks are reported as Newline tokens.
type Lexer struct {
	input     []byte
	filename  string
	pos       int
	line      int
	column    int
	lineStart bool
}

// NewLexer creates a lexer for the given grammar source.
func NewLexer(input []byte, filename string) *Lexer {
	return &Lexer{
		input:     input,
		filename:  filename,
		line:      1,
		column:    1,
		lineStart: true,
	}
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) skipBlanks() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r', '\f', '\v':
			l.advance()
		default:
			return
		}
	}
}

// NextToken returns the next token from the input. At the end of input it
// returns an EOF token together with io.EOF.
func (l *Lexer) NextToken() (Token, error) {
	l.skipBlanks()
	if l.pos >= len(l.input) {
		return Token{Kind: KindEOF, Position: l.Position()}, io.EOF
	}

	start := l.Position()
	atLineStart := l.lineStart
	l.lineStart = false

	ch := l.peek()
	switch {
	case ch == '\n':
		l.advance()
		l.lineStart = true
		return Token{Kind: KindNewline, Literal: "\n", Position: start}, nil

	case ch == '#' && atLineStart:
		for l.peek() != '\n' && l.pos < len(l.input) {
			l.advance()
		}
		return Token{Kind: KindComment, Literal: l.text(start), Position: start}, nil

	case ch == '|':
		l.advance()
		return Token{Kind: KindBar, Literal: "|", Position: start}, nil

	case ch == '-' && l.peekAt(1) == '>':
		l.advance()
		l.advance()
		return Token{Kind: KindArrow, Literal: "->", Position: start}, nil

	case ch == '\'' || ch == '"':
		if end := l.closingQuote(ch); end >= 0 {
			for l.pos <= end {
				l.advance()
			}
			return Token{Kind: KindLiteral, Literal: l.text(start), Position: start}, nil
		}
	}

	l.scanBare()
	return Token{Kind: KindName, Literal: l.text(start), Position: start}, nil
}

// closingQuote returns the offset of the quote closing the literal that
// starts at the current position, or -1 if the line ends first.
func (l *Lexer) closingQuote(quote byte) int {
	for i := l.pos + 1; i < len(l.input); i++ {
		switch l.input[i] {
		case quote:
			return i
		case '\n':
			return -1
		}
	}
	return -1
}

// scanBare consumes a bare symbol. A feature annotation in brackets is part of
// the symbol and may contain blanks.
func (l *Lexer) scanBare() {
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v':
			return
		case ch == '|':
			return
		case ch == '-' && l.peekAt(1) == '>':
			return
		case ch == '[':
			for l.pos < len(l.input) && l.peek() != ']' && l.peek() != '\n' {
				l.advance()
			}
			if l.peek() == ']' {
				l.advance()
			}
		default:
			l.advance()
		}
	}
}

func (l *Lexer) text(start Position) string {
	return string(l.input[start.Offset:l.pos])
}

// Tokenize reads all tokens from input, including the final EOF token.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		tokens = append(tokens, tok)
		if err == io.EOF {
			break
		}
	}
	return tokens
}

// Lines groups tokens into physical lines, dropping comments and empty lines.
func Lines(tokens []Token) [][]Token {
	var lines [][]Token
	var current []Token
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, current)
		}
		current = nil
	}
	for _, tok := range tokens {
		switch tok.Kind {
		case KindNewline, KindEOF:
			flush()
		case KindComment:
		default:
			current = append(current, tok)
		}
	}
	flush()
	return lines
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"')
}

// quote renders a terminal in grammar notation.
func quote(s string) string {
	if strings.ContainsRune(s, '\'') {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}
