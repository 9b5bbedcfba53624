// Command donnactl inspects and maintains a Donna deployment from the shell.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/donna-backend/config"
	"github.com/GoSim-25-26J-441/donna-backend/internal/bootstrap"
)

var version = "dev"

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "donnactl",
		Short:         "Operate the Donna assistant",
		Long:          "donnactl prints schedules and rotation picks, applies database migrations and serves Donna's tools over MCP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	lipgloss.SetHasDarkBackground(true)

	cmd.AddCommand(
		newScheduleCmd(),
		newRotationCmd(),
		newMigrateCmd(),
		newMCPCmd(),
	)
	return cmd
}

// openApp loads the configuration and connects every store.
func openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return bootstrap.NewApp(ctx, cfg)
}
