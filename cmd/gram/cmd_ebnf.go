package main

import (
	"errors"
	"fmt"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/engine"
	"github.com/spf13/cobra"
)

var errFeatureGrammar = errors.New("feature grammars are not supported by this command")

func newEbnfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ebnf <grammar>",
		Short:        "Print a grammar in EBNF notation",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			grammar, err := engine.Load(args[0], false, "")
			if err != nil {
				return err
			}
			if grammar.IsFeature() {
				return fmt.Errorf("%s: %w", args[0], errFeatureGrammar)
			}
			return cfg.WriteEBNF(cmd.OutOrStdout(), grammar.Plain)
		},
	}

	return cmd
}
