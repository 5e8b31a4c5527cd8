package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/labbookdb/labbookdb/internal/cli/ui"
)

// NewAppendCommand creates the append command
func NewAppendCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "append <identifier> [parameters]",
		Short: "Update an existing record",
		Long: `Apply a JSON parameter tree to the record named by an identifier
expression. Scalar fields are overwritten; collections are appended to.
When the identifier matches several records the first one is updated.

Examples:
  labbookdb append 'Cage:id_local.570974' '{"location": "room C"}'
  labbookdb append 'Cage:id_local.570974' '{"treatments": ["Treatment:protocol.Protocol:code.cFluDW"]}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 1 {
				arg = args[1]
			}
			params, err := readTree(file, arg)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			r, err := e.mutator().Update(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("updated %s %d", r.Type.Name, r.ID), color.NoColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the parameters from a JSON or YAML file")

	return cmd
}
