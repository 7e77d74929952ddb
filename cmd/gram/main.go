package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/gram/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// globals holds the flags shared by every command.
type globals struct {
	configPath string
	verbose    int
}

// load returns the configuration file named by --config, or the defaults.
func (g *globals) load() (config.Config, error) {
	if g.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(g.configPath)
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "gram",
		Short:   "Parse sentences with context-free and feature grammars",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(g.verbose, nil)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "configuration file (.toml, .yaml)")
	rootCmd.PersistentFlags().CountVarP(&g.verbose, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newParseCmd(g))
	rootCmd.AddCommand(newCNFCmd())
	rootCmd.AddCommand(newCheckCmd(g))
	rootCmd.AddCommand(newEbnfCmd())
	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newServeCmd(g))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printErrors(errs []error) {
	for _, err := range errs {
		fmt.Fprintln(os.Stderr, err)
	}
}
