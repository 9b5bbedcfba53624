package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/donna-backend/config"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	"github.com/GoSim-25-26J-441/donna-backend/internal/storage/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := postgres.NewConnection(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			st := newStyles()
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), st.dim.Render("Database is up to date."))
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", st.blocks[schedule.BlockWork].Render("applied"), v)
			}
			return nil
		},
	}
}
