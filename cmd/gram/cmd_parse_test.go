package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/gram/config"
	"github.com/dhamidi/gram/engine"
	"github.com/dhamidi/gram/format"
)

const scenarioGrammar = `S -> NP VP
NP -> Det N | Name
VP -> V NP
Det -> 'the' | 'a'
N -> 'cat' | 'dog'
V -> 'sees' | 'likes'
Name -> 'alice'
`

func TestParseLines(t *testing.T) {
	g, err := engine.FromString("scenario.cfg", scenarioGrammar, false, "")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	c := config.Default()
	c.Lowercase = true

	var out bytes.Buffer
	input := "Alice sees the dog.\n\nalice likes a cat\nalice meows\n"
	err = parseLines(g, c, format.NewBracketEncoder(&out), strings.NewReader(input))
	if !errors.Is(err, errNoParse) {
		t.Errorf("err = %v, want errNoParse", err)
	}
	want := "(S (NP (Name alice)) (VP (V sees) (NP (Det the) (N dog))))\n" +
		"(S (NP (Name alice)) (VP (V likes) (NP (Det a) (N cat))))\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestParseSentence(t *testing.T) {
	g, err := engine.FromString("scenario.cfg", scenarioGrammar, false, "")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	c := config.Default()
	c.Start = "NP"

	var out bytes.Buffer
	if err := parseSentence(g, c, format.NewLineEncoder(&out), []string{"the", "cat"}); err != nil {
		t.Fatalf("parseSentence: %v", err)
	}
	if want := "tree\t1\t5\t2\t(NP (Det the) (N cat))\ntotal\t1\n"; out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}

	c.Algorithm = "feature"
	if err := parseSentence(g, c, format.NewLineEncoder(&out), []string{"the", "cat"}); !errors.Is(err, engine.ErrNotFeature) {
		t.Errorf("err = %v, want ErrNotFeature", err)
	}
}

func TestNormalize(t *testing.T) {
	c := config.Default()
	if got := normalize([]string{"The", "Dog"}, c); strings.Join(got, " ") != "The Dog" {
		t.Errorf("got %v", got)
	}
	c.Lowercase = true
	if got := normalize([]string{"The", "Dog"}, c); strings.Join(got, " ") != "the dog" {
		t.Errorf("got %v", got)
	}
}
