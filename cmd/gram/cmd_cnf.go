package main

import (
	"fmt"

	"github.com/dhamidi/gram/cnf"
	"github.com/dhamidi/gram/engine"
	"github.com/spf13/cobra"
)

func newCNFCmd() *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:          "cnf <grammar>",
		Short:        "Print the rule tables the chart parser compiles a grammar into",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			grammar, err := engine.Load(args[0], false, start)
			if err != nil {
				return err
			}
			if grammar.IsFeature() {
				return fmt.Errorf("%s: %w", args[0], errFeatureGrammar)
			}
			compiled, err := cnf.Compile(grammar.Plain)
			if err != nil {
				return fmt.Errorf("compiling grammar: %w", err)
			}
			_, err = compiled.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&start, "start", "s", "", "start symbol")

	return cmd
}
