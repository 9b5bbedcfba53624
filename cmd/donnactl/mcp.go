package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/donna-backend/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve Donna's tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol
			log.SetOutput(os.Stderr)

			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			registry := app.Registry()
			log.Printf("[mcp] serving %d tools", registry.Len())
			return mcpserver.Serve(registry, version)
		},
	}
}
