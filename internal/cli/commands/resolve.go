package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <identifier>",
		Short: "Print the primary keys an identifier expression names",
		Long: `Evaluate an identifier expression and print the primary keys of the
matching records, one per line.

Examples:
  labbookdb resolve 'Cage:id_local.570974'
  labbookdb resolve 'Animal:external_ids.AnimalExternalIdentifier:database.ETH/AIC&#&identifier.5682'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			keys, err := e.resolver().Resolve(cmd.Context(), e.store.DB(), args[0])
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
