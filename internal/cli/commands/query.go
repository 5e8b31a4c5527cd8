package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/labbookdb/labbookdb/internal/cli/ui"
	"github.com/labbookdb/labbookdb/internal/orm/query"
)

// NewQueryCommand creates the query command
func NewQueryCommand() *cobra.Command {
	var (
		format  string
		outer   bool
		showSQL bool
	)

	cmd := &cobra.Command{
		Use:   "query <spec.yaml>",
		Short: "Run a tabular query",
		Long: `Run a tabular query described by a YAML file and print the result.

The file lists columns, joins, filters and memberships:

  columns:
    - [Cage, id_local]
    - [Cage, Treatment, start_date]
    - [Cage, TreatmentProtocol, code]
  joins:
    - [Cage_Treatment, Cage.treatments]
    - [Cage_TreatmentProtocol, Cage_Treatment.protocol]
  filters:
    - [Cage, location, room A, room B]
  outer: true

Dates in filters are quoted "Y,M,D" strings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ui.ParseFormat(format)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			spec, err := query.ParseSpec(data)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("outer") {
				spec.Outer = outer
			}
			spec.OrderByRoot = true

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			q, err := e.builder().Compile(spec)
			if err != nil {
				return err
			}
			if showSQL {
				fmt.Fprintln(cmd.ErrOrStderr(), q.SQL)
			}

			table, err := q.Run(cmd.Context(), e.store.DB())
			if err != nil {
				return err
			}
			return ui.RenderResult(cmd.OutOrStdout(), table, f, color.NoColor)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, csv or json")
	cmd.Flags().BoolVar(&outer, "outer", false, "Render joins as left outer joins")
	cmd.Flags().BoolVar(&showSQL, "sql", false, "Print the compiled SQL to stderr")

	return cmd
}
