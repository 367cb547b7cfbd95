package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront-api/internal/app"
	"storefront-api/internal/config"
	"storefront-api/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx, !noDotEnv)
			if err != nil {
				return err
			}

			database, err := app.OpenDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := db.RunMigrations(ctx, database.DB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(out, "applied %s\n", version)
			}
			return nil
		},
	}
}
