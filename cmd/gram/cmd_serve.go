package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dhamidi/gram/config"
	"github.com/dhamidi/gram/ui"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	var grammar string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web parsing service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") || c.Listen == "" {
				c.Listen = addr
			}
			if cmd.Flags().Changed("grammar") {
				c.Grammar = grammar
			}

			server, err := ui.NewServer(c)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer server.Close()

			displayAddr := c.Listen
			if strings.HasPrefix(displayAddr, ":") {
				displayAddr = "localhost" + displayAddr
			}
			fmt.Printf("Starting server at http://%s\n", displayAddr)
			return http.ListenAndServe(c.Listen, server)
		},
	}

	cmd.Flags().StringVarP(&addr, "listen", "l", config.Default().Listen, "address to listen on")
	cmd.Flags().StringVarP(&grammar, "grammar", "g", "", "grammar file to serve and reload on change")

	return cmd
}
