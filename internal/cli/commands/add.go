package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/labbookdb/labbookdb/internal/cli/ui"
)

// NewAddCommand creates the add command
func NewAddCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "add [parameter-tree]",
		Short: "Create a record",
		Long: `Create a record, with any nested records, from a JSON parameter tree.

The CATEGORY key names the entity type. Keys ending in _date take
"Y,M,D[,h[,m[,s]]]" strings. Relationships take nested trees, lists of
trees, or identifier expressions naming existing records.

A tree holding only CATEGORY lists the settable fields of the category.

Examples:
  labbookdb add '{"CATEGORY": "Cage", "id_local": "570974", "location": "room A"}'
  labbookdb add '{"CATEGORY": "Animal", "sex": "f", "genotypes": ["Genotype:code.eptg"]}'
  labbookdb add --file animal.yaml
  labbookdb add '{"CATEGORY": "Treatment"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			tree, err := readTree(file, arg)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.constructor().Create(cmd.Context(), tree)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			category, _ := tree.Category()
			switch {
			case res.Discovery():
				ui.List(out, fmt.Sprintf("Settable fields of %s", category), res.SettableFields, color.NoColor)
			case res.Duplicate:
				fmt.Fprint(out, ui.Warning(fmt.Sprintf("possible double entry of %s, nothing was written", category), nil, color.NoColor))
			default:
				ui.WriteSuccess(out, fmt.Sprintf("created %s %d", category, res.ID), color.NoColor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the parameter tree from a JSON or YAML file")

	return cmd
}
