package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/score-omr/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdin/stdout",
		Long: `Run the MCP server over stdin/stdout.

Configure it in your MCP client; requests arrive one per line on stdin and
responses are written to stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return server.New(svc, Version).Serve(cmdContext(cmd), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
