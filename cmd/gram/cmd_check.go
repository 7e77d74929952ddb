package main

import (
	"errors"
	"fmt"

	"github.com/dhamidi/gram/engine"
	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("check failed")

func newCheckCmd(g *globals) *cobra.Command {
	var start string
	var strict bool

	cmd := &cobra.Command{
		Use:           "check <grammar>...",
		Short:         "Load grammar files and report unreachable or undefined rules",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.load()
			if err != nil {
				printErrors([]error{err})
				return err
			}
			var failed bool
			for _, path := range args {
				grammar, err := engine.Load(path, c.Feature, start)
				if err != nil {
					printErrors([]error{err})
					failed = true
					continue
				}
				warnings := grammar.Verify()
				printErrors(warnings)
				if strict && len(warnings) > 0 {
					failed = true
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nonterminals, start %s, %d warning(s)\n",
					path, len(grammar.Nonterminals()), grammar.Start(), len(warnings))
			}
			if failed {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&start, "start", "s", "", "start symbol for reachability")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	return cmd
}
