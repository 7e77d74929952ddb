package chart

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/cnf"
	"github.com/dhamidi/gram/tree"
)

const scenarioGrammar = `
S -> NP VP
NP -> Det N | Name
VP -> V NP
Det -> 'the' | 'a'
N -> 'cat' | 'dog'
V -> 'sees' | 'likes'
Name -> 'alice'
`

func mustGrammar(t *testing.T, text string) *cfg.Grammar {
	t.Helper()
	g, err := cfg.ParseString(text)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return g
}

func brackets(trees []*tree.Node) []string {
	out := make([]string, len(trees))
	for i, n := range trees {
		out[i] = n.String()
	}
	return out
}

func TestParse_Scenario(t *testing.T) {
	g := mustGrammar(t, scenarioGrammar)

	tests := []struct {
		name   string
		tokens string
		want   []string
	}{
		{
			name:   "grammatical",
			tokens: "alice sees the dog",
			want:   []string{"(S (NP (Name alice)) (VP (V sees) (NP (Det the) (N dog))))"},
		},
		{
			name:   "unknown verb",
			tokens: "alice meows",
		},
		{
			name:   "incomplete",
			tokens: "alice sees",
		},
		{
			name:   "empty",
			tokens: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trees, err := Parse(strings.Fields(tt.tokens), g)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			got := brackets(trees)
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_Start(t *testing.T) {
	g := mustGrammar(t, scenarioGrammar)

	trees, err := Parse([]string{"the", "cat"}, g, WithStart("NP"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := brackets(trees); len(got) != 1 || got[0] != "(NP (Det the) (N cat))" {
		t.Errorf("got %v", got)
	}

	trees, err = Parse([]string{"the", "cat"}, g, WithStart("Nope"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(trees) != 0 {
		t.Errorf("unknown start symbol gave %v", brackets(trees))
	}
}

func TestParse_GrammarErrors(t *testing.T) {
	if _, err := Parse([]string{"a"}, nil); !errors.Is(err, cfg.ErrNoProductions) {
		t.Errorf("error = %v, want ErrNoProductions", err)
	}
	if _, err := Parse([]string{"a"}, &cfg.Grammar{Start: "S"}); !errors.Is(err, cfg.ErrNoProductions) {
		t.Errorf("error = %v, want ErrNoProductions", err)
	}
}

func TestParse_LongRulesAreUnbinarized(t *testing.T) {
	g := mustGrammar(t, "S -> 'a' B 'c' D\nB -> 'b'\nD -> 'd'")
	trees, err := Parse([]string{"a", "b", "c", "d"}, g)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := brackets(trees); len(got) != 1 || got[0] != "(S a (B b) c (D d))" {
		t.Errorf("got %v", got)
	}
}

func TestParse_OrderedBySize(t *testing.T) {
	tests := []struct {
		name    string
		grammar string
		input   string
		want    []string
	}{
		{
			name:    "unary chain",
			grammar: "S -> P Q | Z\nP -> R\nR -> T\nT -> 'x'\nQ -> 'y'\nZ -> X Y\nX -> 'x'\nY -> 'y'",
			input:   "x y",
			want:    []string{"(S (Z (X x) (Y y)))", "(S (P (R (T x))) (Q y))"},
		},
		{
			// The long rule needs two binary and four terminal helpers, so
			// it ranks after the fully binary parse.
			name:    "helpers counted",
			grammar: "S -> X | P Q\nX -> 'a' 'b' 'c' 'd'\nP -> A B\nQ -> C D\nA -> 'a'\nB -> 'b'\nC -> 'c'\nD -> 'd'",
			input:   "a b c d",
			want:    []string{"(S (P (A a) (B b)) (Q (C c) (D d)))", "(S (X a b c d))"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trees, err := Parse(strings.Fields(tt.input), mustGrammar(t, tt.grammar))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := brackets(trees); strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_Caps(t *testing.T) {
	g := mustGrammar(t, "S -> S S | 'a'")

	tests := []struct {
		name string
		n    int
		opts []Option
		want int
	}{
		{"all trees below cap", 4, nil, 5},
		{"default cap", 6, nil, DefaultMaxTrees},
		{"explicit cap", 6, []Option{WithMaxTrees(3)}, 3},
		{"zero clamps to one", 4, []Option{WithMaxTrees(0)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := strings.Fields(strings.Repeat("a ", tt.n))
			trees, err := Parse(tokens, g, tt.opts...)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(trees) != tt.want {
				t.Errorf("got %d trees, want %d", len(trees), tt.want)
			}
			seen := make(map[string]bool)
			for _, n := range trees {
				if seen[n.Key()] {
					t.Errorf("duplicate tree %s", n)
				}
				seen[n.Key()] = true
				if got := strings.Join(n.Leaves(), " "); got != strings.Join(tokens, " ") {
					t.Errorf("leaves %q do not match tokens", got)
				}
			}
		})
	}
}

func TestParse_CellCap(t *testing.T) {
	g := mustGrammar(t, "S -> S S | 'a'")
	c, err := cnf.Compile(g)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	s, _ := c.ID("S")

	p := &parser{grammar: c, max: 2}
	cl := newCell()
	for i := 0; i < 5; i++ {
		cl.add(s, tree.ID(i), p.max)
	}
	if n := len(cl.trees[s]); n != 2 {
		t.Errorf("cell holds %d trees, want 2", n)
	}
	if cl.add(s, tree.ID(0), 10) {
		t.Error("duplicate tree was added")
	}
}

func TestParse_Deterministic(t *testing.T) {
	g := mustGrammar(t, "S -> S S | S S S | 'a' | A\nA -> 'a'")
	tokens := []string{"a", "a", "a", "a", "a"}

	first, err := Parse(tokens, g)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Parse(tokens, g)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if strings.Join(brackets(first), "\n") != strings.Join(brackets(again), "\n") {
			t.Fatalf("run %d differs:\n%v\n%v", i, brackets(first), brackets(again))
		}
	}
}

func TestParseCNF_IdempotentCompilation(t *testing.T) {
	g := mustGrammar(t, scenarioGrammar+"VP -> V NP 'with' NP | V\n")
	first, err := cnf.Compile(g)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := cnf.Compile(g)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for _, input := range []string{
		"alice sees the dog",
		"alice sees",
		"the cat likes alice with the dog",
		"alice meows",
		"the the",
	} {
		tokens := strings.Fields(input)
		a := brackets(ParseCNF(tokens, first))
		b := brackets(ParseCNF(tokens, second))
		if strings.Join(a, "\n") != strings.Join(b, "\n") {
			t.Errorf("%q: compilations disagree: %v vs %v", input, a, b)
		}
	}
}
