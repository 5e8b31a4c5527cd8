package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/labbookdb/labbookdb/internal/cli/ui"
	"github.com/labbookdb/labbookdb/internal/orm/identifier"
	"github.com/labbookdb/labbookdb/internal/orm/query"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// linkedAlias prefixes the binding of linked records in show queries
const linkedAlias = "Linked"

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <identifier>",
		Short: "Print every field of the records an identifier names",
		Long: `Print the fields of each record matching an identifier expression,
followed by the keys of the records linked through each relationship.

Examples:
  labbookdb show 'Cage:id_local.570974'
  labbookdb show 'Animal:treatments.Treatment:protocol.Protocol:code.cFluDW'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := identifier.Parse(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			res, err := e.resolver().ResolveExpr(ctx, e.store.DB(), expr)
			if err != nil {
				return err
			}
			t, err := e.store.Registry().Resolve(res.Category)
			if err != nil {
				return err
			}

			b := e.builder()
			fields, err := b.Execute(ctx, e.store.DB(), query.Spec{
				Columns:     []query.ColumnSpec{query.AllColumns(t.Name)},
				Filters:     []query.FilterSpec{query.Filter(t.Name, schema.PrimaryKey, keyValues(res.Keys)...)},
				OrderByRoot: true,
			})
			if err != nil {
				return err
			}

			links := make(map[string]map[int64][]string)
			for _, rel := range t.AllRelationships() {
				linked, err := linkedKeys(ctx, b, e.store.DB(), t, rel, res.Keys)
				if err != nil {
					return err
				}
				links[rel.Name] = linked
			}

			renderRecords(cmd.OutOrStdout(), t, fields, links)
			return nil
		},
	}
}

// linkedKeys maps each record key to the keys linked through rel
func linkedKeys(ctx context.Context, b *query.Builder, db query.Querier, t *schema.EntityType, rel *schema.Relationship, keys []int64) (map[int64][]string, error) {
	alias := linkedAlias + "_" + rel.Target
	table, err := b.Execute(ctx, db, query.Spec{
		Columns: []query.ColumnSpec{
			query.Column(t.Name, schema.PrimaryKey),
			query.AliasColumns(linkedAlias, rel.Target, schema.PrimaryKey),
		},
		Joins:   []query.JoinSpec{query.JoinAs(alias, t.Name+"."+rel.Name).Inner()},
		Filters: []query.FilterSpec{query.Filter(t.Name, schema.PrimaryKey, keyValues(keys)...)},
	})
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", t.Name, rel.Name, err)
	}

	out := make(map[int64][]string)
	source, target := t.Name+"_"+schema.PrimaryKey, alias+"_"+schema.PrimaryKey
	for i := 0; i < table.Len(); i++ {
		s, _ := table.Value(i, source)
		l, _ := table.Value(i, target)
		id, ok := schema.AsInt(s)
		if !ok || l == nil {
			continue
		}
		out[id] = append(out[id], ui.FormatValue(l))
	}
	return out, nil
}

func renderRecords(w io.Writer, t *schema.EntityType, fields *query.Table, links map[string]map[int64][]string) {
	idLabel := t.Name + "_" + schema.PrimaryKey
	for i := 0; i < fields.Len(); i++ {
		v, _ := fields.Value(i, idLabel)
		id, _ := schema.AsInt(v)
		ui.Header(w, fmt.Sprintf("%s %d", t.Name, id), color.NoColor)

		list := ui.NewFieldList(w, color.NoColor)
		for _, label := range fields.Columns {
			v, _ := fields.Value(i, label)
			list.Add(strings.TrimPrefix(label, t.Name+"_"), v)
		}
		for _, name := range sortedNames(links) {
			if linked := links[name][id]; len(linked) > 0 {
				list.Add(name, strings.Join(linked, ", "))
			}
		}
		list.Render()
		fmt.Fprintln(w)
	}
}

func keyValues(keys []int64) []interface{} {
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func sortedNames(m map[string]map[int64][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
