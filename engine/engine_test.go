package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/config"
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

const agreementGrammar = `
S[num=?n] -> NP[num=?n] VP[num=?n]
NP[num=sg] -> 'dog'
NP[num=pl] -> 'dogs'
VP[num=sg] -> 'runs'
VP[num=pl] -> 'run'
`

func TestParse_Algorithms(t *testing.T) {
	g, err := FromString("scenario.cfg", scenarioGrammar, false, "")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if g.IsFeature() {
		t.Fatal("plain grammar loaded as a feature grammar")
	}
	want := "(S (NP (Name alice)) (VP (V sees) (NP (Det the) (N dog))))"

	for _, algorithm := range []string{"chart", "earley", "descent", ""} {
		t.Run(algorithm, func(t *testing.T) {
			c := config.Default()
			c.Algorithm = algorithm
			trees, err := g.Parse(strings.Fields("alice sees the dog"), c)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(trees) != 1 || trees[0].String() != want {
				t.Errorf("got %v", trees)
			}
			trees, err = g.Parse(strings.Fields("alice meows"), c)
			if err != nil || len(trees) != 0 {
				t.Errorf("non-parse gave %v, %v", trees, err)
			}
		})
	}
}

func TestParse_Start(t *testing.T) {
	g, err := FromString("scenario.cfg", scenarioGrammar, false, "")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	c := config.Default()
	c.Start = "NP"
	for _, algorithm := range []string{"chart", "earley", "descent"} {
		c.Algorithm = algorithm
		trees, err := g.Parse([]string{"the", "cat"}, c)
		if err != nil || len(trees) != 1 || trees[0].String() != "(NP (Det the) (N cat))" {
			t.Errorf("%s: got %v, %v", algorithm, trees, err)
		}
	}
}

func TestParse_Feature(t *testing.T) {
	g, err := FromString("agreement", agreementGrammar, false, "")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !g.IsFeature() {
		t.Fatal("feature syntax not detected")
	}
	if got := g.Algorithm(config.Default()); got != "feature" {
		t.Errorf("Algorithm = %q, want feature", got)
	}

	trees, err := g.Parse([]string{"dog", "runs"}, config.Default())
	if err != nil || len(trees) == 0 || trees[0].Label != "S[num=sg]" {
		t.Errorf("got %v, %v", trees, err)
	}

	c := config.Default()
	c.Start = "S[num=pl]"
	trees, err = g.Parse([]string{"dog", "runs"}, c)
	if err != nil || len(trees) != 0 {
		t.Errorf("constrained start gave %v, %v", trees, err)
	}
}

func TestParse_Errors(t *testing.T) {
	plain, err := FromString("scenario.cfg", scenarioGrammar, false, "")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}

	c := config.Default()
	c.Algorithm = "feature"
	if _, err := plain.Parse([]string{"alice"}, c); !errors.Is(err, ErrNotFeature) {
		t.Errorf("err = %v, want ErrNotFeature", err)
	}
	c.Algorithm = "cyk"
	if _, err := plain.Parse([]string{"alice"}, c); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("err = %v, want ErrUnknownAlgorithm", err)
	}

	if _, err := FromString("empty", "# nothing\n", false, ""); !errors.Is(err, cfg.ErrNoProductions) {
		t.Errorf("err = %v, want ErrNoProductions", err)
	}
	if _, err := FromString("bad", "'x' -> A\n", true, ""); !errors.Is(err, cfg.ErrTerminalLHS) {
		t.Errorf("err = %v, want ErrTerminalLHS", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	plainPath := filepath.Join(dir, "scenario.cfg")
	featurePath := filepath.Join(dir, "simple.fcfg")
	if err := os.WriteFile(plainPath, []byte(scenarioGrammar), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(featurePath, []byte("S -> NP VP\nNP -> 'dog'\nVP -> 'runs'\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := Load(plainPath, false, "VP")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.IsFeature() || g.Start() != "VP" || g.Name != plainPath {
		t.Errorf("got %+v", g)
	}

	g, err = Load(featurePath, false, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !g.IsFeature() {
		t.Error(".fcfg file not loaded as a feature grammar")
	}
	trees, err := g.Parse([]string{"dog", "runs"}, config.Default())
	if err != nil || len(trees) != 1 || trees[0].String() != "(S (NP dog) (VP runs))" {
		t.Errorf("got %v, %v", trees, err)
	}

	if _, err := Load(filepath.Join(dir, "missing.cfg"), false, ""); err == nil {
		t.Error("missing file accepted")
	}
}

func TestGrammar_Accessors(t *testing.T) {
	g, err := FromString("scenario.cfg", scenarioGrammar+"Orphan -> 'x'\n", false, "")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if got := strings.Join(g.Nonterminals(), " "); !strings.Contains(got, "Orphan") {
		t.Errorf("Nonterminals = %q", got)
	}
	if warnings := g.Verify(); len(warnings) != 1 || !errors.Is(warnings[0], cfg.ErrUnreachable) {
		t.Errorf("Verify = %v", warnings)
	}
	again, err := FromString("again", g.String(), false, "")
	if err != nil || again.String() != g.String() {
		t.Errorf("round trip: %v\n%s\n%s", err, g.String(), again)
	}
}
