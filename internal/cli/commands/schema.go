package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/labbookdb/labbookdb/internal/cli/ui"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// NewSchemaCommand creates the schema command
func NewSchemaCommand() *cobra.Command {
	var dot bool

	cmd := &cobra.Command{
		Use:   "schema [category]",
		Short: "Describe the record categories",
		Long: `List every category, or the fields and relationships of one.

With --dot the relationship graph is printed in Graphviz format:
  labbookdb schema --dot | dot -Tsvg > schema.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := schema.Labbook()
			out := cmd.OutOrStdout()

			if dot {
				writeDot(out, reg)
				return nil
			}
			if len(args) == 0 {
				listCategories(out, reg)
				return nil
			}

			t, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			describeCategory(out, t)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dot, "dot", false, "Print the relationship graph in Graphviz dot format")

	return cmd
}

func listCategories(w io.Writer, reg *schema.Registry) {
	table := ui.NewTable(w, []string{"CATEGORY", "TABLE", "EXTENDS", "FIELDS", "RELATIONSHIPS"}, &ui.TableOptions{NoColor: color.NoColor})
	for _, t := range reg.Types() {
		extends := ""
		if t.Supertype != nil {
			extends = t.Supertype.Name
		}
		table.AddRow(t.Name, t.Table, extends,
			strconv.Itoa(len(t.AllFields())), strconv.Itoa(len(t.AllRelationships())))
	}
	table.Render()
}

func describeCategory(w io.Writer, t *schema.EntityType) {
	title := fmt.Sprintf("%s (%s)", t.Name, t.Table)
	if t.Supertype != nil {
		title = fmt.Sprintf("%s (%s, a %s with %s = %q)", t.Name, t.Table, t.Supertype.Name, t.DiscriminatorField(), t.Identity)
	}
	ui.Header(w, title, color.NoColor)

	fields := ui.NewTable(w, []string{"FIELD", "KIND", "UNIQUE", "FROM"}, &ui.TableOptions{NoColor: color.NoColor})
	for _, f := range t.AllFields() {
		unique := ""
		if f.Unique {
			unique = "yes"
		}
		owner := ""
		if f.Owner != nil && f.Owner != t {
			owner = f.Owner.Name
		}
		fields.AddRow(f.Name, f.Kind.String(), unique, owner)
	}
	fields.Render()

	rels := t.AllRelationships()
	if len(rels) == 0 {
		return
	}
	fmt.Fprintln(w)
	table := ui.NewTable(w, []string{"RELATIONSHIP", "TARGET", "MULTIPLICITY", "THROUGH"}, &ui.TableOptions{NoColor: color.NoColor})
	for _, r := range rels {
		table.AddRow(r.Name, r.Target, r.Multiplicity.String(), through(r))
	}
	table.Render()
}

func through(r *schema.Relationship) string {
	if r.Linkage == schema.Association {
		return fmt.Sprintf("%s (%s, %s)", r.JoinTable, r.SourceColumn, r.TargetColumn)
	}
	return r.ForeignKey
}

// writeDot prints relationships as solid edges and subtypes as dashed
// edges to their supertype
func writeDot(w io.Writer, reg *schema.Registry) {
	fmt.Fprintln(w, "digraph labbookdb {")
	fmt.Fprintln(w, "  node [shape=box];")
	for _, t := range reg.Types() {
		fmt.Fprintf(w, "  %q;\n", t.Name)
	}
	for _, t := range reg.Types() {
		if t.Supertype != nil {
			fmt.Fprintf(w, "  %q -> %q [style=dashed, arrowhead=empty];\n", t.Name, t.Supertype.Name)
		}
		for _, r := range t.OwnRelationships() {
			head := "normal"
			if r.IsToMany() {
				head = "crow"
			}
			fmt.Fprintf(w, "  %q -> %q [label=%q, arrowhead=%s];\n", t.Name, r.Target, r.Name, head)
		}
	}
	fmt.Fprintln(w, "}")
}
