package cli

import (
	"github.com/spf13/cobra"
)

var noDotEnv bool

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storefront-api",
		Short:         "Catalog, RFQ and authentication API for the storefront",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&noDotEnv, "no-dotenv", false, "do not load env.<APP_ENV> or .env before reading the environment")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}
