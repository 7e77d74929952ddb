package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhamidi/gram/config"
	"github.com/dhamidi/gram/engine"
	"github.com/dhamidi/gram/format"
	"github.com/dhamidi/gram/tokenize"
	"github.com/spf13/cobra"
)

var errNoParse = errors.New("no parse")

func newParseCmd(g *globals) *cobra.Command {
	var (
		algorithm    string
		maxTrees     int
		maxDepth     int
		start        string
		text         string
		outputFormat string
		lowercase    bool
		feature      bool
	)

	cmd := &cobra.Command{
		Use:   "parse <grammar> [tokens...]",
		Short: "Parse a sentence and print its trees",
		Long: `Parse a sentence and print its trees.

The sentence is given as tokens after the grammar file, as raw text with
--text, or on standard input with one sentence per line. Files ending in
.fcfg are feature grammars and always use the feature parser.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("algorithm") {
				c.Algorithm = algorithm
			}
			if flags.Changed("max-trees") {
				c.MaxTrees = maxTrees
			}
			if flags.Changed("max-depth") {
				c.MaxDepth = maxDepth
			}
			if flags.Changed("start") {
				c.Start = start
			}
			if flags.Changed("lowercase") {
				c.Lowercase = lowercase
			}
			if flags.Changed("feature") {
				c.Feature = feature
			}
			if err := c.Validate(); err != nil {
				return err
			}

			enc, err := format.New(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			grammar, err := engine.Load(args[0], c.Feature || c.Algorithm == "feature", c.Start)
			if err != nil {
				return err
			}

			switch {
			case len(args) > 1:
				return parseSentence(grammar, c, enc, normalize(args[1:], c))
			case flags.Changed("text"):
				return parseSentence(grammar, c, enc, normalize(tokenize.Words(text), c))
			}
			return parseLines(grammar, c, enc, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "chart", "parser to use ("+strings.Join(config.Algorithms, ", ")+")")
	cmd.Flags().IntVarP(&maxTrees, "max-trees", "n", config.Default().MaxTrees, "maximum number of trees")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "recursion bound for descent and feature parsers (0 picks one from the sentence length)")
	cmd.Flags().StringVarP(&start, "start", "s", "", "start symbol, for example S or S[num=?n]")
	cmd.Flags().StringVarP(&text, "text", "t", "", "raw sentence to tokenize and parse")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "bracket", "output format ("+strings.Join(format.Names(), ", ")+")")
	cmd.Flags().BoolVar(&lowercase, "lowercase", false, "lowercase tokens before parsing")
	cmd.Flags().BoolVar(&feature, "feature", false, "read the grammar as a feature grammar")

	return cmd
}

func normalize(tokens []string, c config.Config) []string {
	if c.Lowercase {
		return tokenize.Fold(tokens)
	}
	return tokens
}

func parseSentence(g *engine.Grammar, c config.Config, enc format.Encoder, tokens []string) error {
	trees, err := g.Parse(tokens, c)
	if err != nil {
		return err
	}
	if err := enc.Encode(trees); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if len(trees) == 0 {
		return fmt.Errorf("%s: %w", strings.Join(tokens, " "), errNoParse)
	}
	return nil
}

// parseLines parses every non-blank line of r. It reports a failure when
// any line does not parse, after trying all of them.
func parseLines(g *engine.Grammar, c config.Config, enc format.Encoder, r io.Reader) error {
	var failed int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens := normalize(tokenize.Words(scanner.Text()), c)
		if len(tokens) == 0 {
			continue
		}
		if err := parseSentence(g, c, enc, tokens); err != nil {
			if !errors.Is(err, errNoParse) {
				return err
			}
			fmt.Fprintln(os.Stderr, err)
			failed++
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d sentence(s): %w", failed, errNoParse)
	}
	return nil
}
