// Package engine loads grammar files and dispatches token sequences to the
// parser selected by a configuration. It is shared by the CLI, the HTTP
// service and the language server.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/chart"
	"github.com/dhamidi/gram/config"
	"github.com/dhamidi/gram/descent"
	"github.com/dhamidi/gram/feature"
	"github.com/dhamidi/gram/tree"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gram.engine")

var (
	// ErrNotFeature is returned when the feature parser is asked to run
	// on a plain grammar.
	ErrNotFeature = errors.New("grammar has no features")

	// ErrUnknownAlgorithm is returned for an algorithm no parser implements.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// FeatureExtensions lists the file extensions that mark a feature grammar.
var FeatureExtensions = []string{".fcfg"}

// Grammar is a loaded grammar. Exactly one of Plain and Feature is set.
type Grammar struct {
	Name    string
	Plain   *cfg.Grammar
	Feature *cfg.FeatureGrammar
}

// IsFeatureFile reports whether path names a feature grammar by extension.
func IsFeatureFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range FeatureExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads a grammar file. A feature grammar is read when feature is set,
// when the extension says so, or when the text uses feature brackets.
func Load(path string, feature bool, start string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar: %w", err)
	}
	return build(path, data, feature || IsFeatureFile(path), start)
}

// FromString builds a grammar from text. name is used in error positions.
func FromString(name, text string, feature bool, start string) (*Grammar, error) {
	return build(name, []byte(text), feature, start)
}

func build(name string, data []byte, feature bool, start string) (*Grammar, error) {
	var opts []cfg.Option
	if start != "" {
		opts = append(opts, cfg.WithStart(start))
	}
	g := &Grammar{Name: name}
	if feature || cfg.HasFeatures(string(data)) {
		fg, err := cfg.ParseFeature(name, bytes.NewReader(data), opts...)
		if err != nil {
			return nil, err
		}
		g.Feature = fg
		log.Debugf("loaded feature grammar %s: %d productions", name, len(fg.Productions))
		return g, nil
	}
	pg, err := cfg.Parse(name, bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	g.Plain = pg
	log.Debugf("loaded grammar %s: %d productions", name, len(pg.Productions))
	return g, nil
}

// IsFeature reports whether g is a feature grammar.
func (g *Grammar) IsFeature() bool {
	return g.Feature != nil
}

// Start returns the default start symbol in grammar notation.
func (g *Grammar) Start() string {
	if g.Feature != nil {
		return g.Feature.Start.String()
	}
	return g.Plain.Start
}

// Nonterminals returns the categories defined by the grammar.
func (g *Grammar) Nonterminals() []string {
	if g.Feature != nil {
		return g.Feature.Nonterminals()
	}
	return g.Plain.Nonterminals()
}

// Verify returns the reachability warnings for the grammar.
func (g *Grammar) Verify() []error {
	if g.Feature != nil {
		return cfg.VerifyFeature(g.Feature)
	}
	return cfg.Verify(g.Plain)
}

// String renders the grammar in its text notation.
func (g *Grammar) String() string {
	if g.Feature != nil {
		return g.Feature.String()
	}
	return g.Plain.String()
}

// Algorithm returns the parser c selects for g. Feature grammars are
// always parsed with the feature parser.
func (g *Grammar) Algorithm(c config.Config) string {
	if g.Feature != nil {
		return "feature"
	}
	if c.Algorithm == "" {
		return config.Default().Algorithm
	}
	return c.Algorithm
}

// Parse runs the parser selected by c over tokens. Tokens are lowercased
// first when c.Lowercase is set by the caller; Parse itself does not
// normalize. A non-parse is an empty result, not an error.
func (g *Grammar) Parse(tokens []string, c config.Config) ([]*tree.Node, error) {
	maxTrees := c.MaxTrees
	if maxTrees == 0 {
		maxTrees = config.Default().MaxTrees
	}
	algorithm := g.Algorithm(c)
	log.Debugf("parsing %d tokens with %s", len(tokens), algorithm)

	switch algorithm {
	case "chart":
		return chart.Parse(tokens, g.Plain, chart.WithMaxTrees(maxTrees), chart.WithStart(c.Start))
	case "earley":
		return chart.EarleyParse(tokens, g.Plain, chart.WithMaxTrees(maxTrees), chart.WithStart(c.Start))
	case "descent":
		return descent.Parse(tokens, g.Plain,
			descent.WithMaxTrees(maxTrees),
			descent.WithMaxDepth(c.MaxDepth),
			descent.WithStart(c.Start),
		), nil
	case "feature":
		if g.Feature == nil {
			return nil, fmt.Errorf("%s: %w", g.Name, ErrNotFeature)
		}
		opts := []feature.Option{feature.WithMaxTrees(maxTrees), feature.WithMaxDepth(c.MaxDepth)}
		if c.Start != "" {
			opts = append(opts, feature.WithStartString(c.Start))
		}
		return feature.Parse(tokens, g.Feature, opts...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}
