// Package codegen provides DDL generation for the lab record store.
// It turns the registered entity types into CREATE TABLE statements.
package codegen

import (
	"fmt"
	"strings"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// DDLGenerator generates DDL statements for the types of a registry
type DDLGenerator struct {
	dialect  dialect.Dialect
	registry *schema.Registry
	inbound  map[string]map[string]string
}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator(d dialect.Dialect, r *schema.Registry) *DDLGenerator {
	return &DDLGenerator{
		dialect:  d,
		registry: r,
		inbound:  inboundReferences(r),
	}
}

// GenerateSchema generates every CREATE TABLE statement of the registry:
// entity tables in dependency order, then association tables
func (g *DDLGenerator) GenerateSchema() ([]string, error) {
	order, err := schema.NewRelationshipGraph(g.registry).TopologicalSort()
	if err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(order))
	for _, name := range order {
		t, err := g.registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		stmt, err := g.GenerateCreateTable(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		stmts = append(stmts, stmt)
	}

	assoc, err := g.GenerateAssociationTables()
	if err != nil {
		return nil, err
	}
	return append(stmts, assoc...), nil
}

// GenerateCreateTable generates the CREATE TABLE statement for an entity type's own table
func (g *DDLGenerator) GenerateCreateTable(t *schema.EntityType) (string, error) {
	if t == nil {
		return "", fmt.Errorf("entity type cannot be nil")
	}

	references := make(map[string]string)
	for col, table := range g.inbound[t.Table] {
		references[col] = table
	}
	for _, rel := range t.OwnRelationships() {
		if rel.Multiplicity != schema.One || rel.Linkage != schema.ForeignKey {
			continue
		}
		target, err := g.registry.Target(rel)
		if err != nil {
			return "", fmt.Errorf("relationship %s: %w", rel.Name, err)
		}
		references[rel.ForeignKey] = target.Root().Table
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", dialect.QuoteIdentifier(t.Table))

	fields := t.OwnFields()
	defs := make([]string, 0, len(fields))
	for _, f := range fields {
		defs = append(defs, g.generateColumnDefinition(t, f, references[f.Name]))
	}
	for i, def := range defs {
		b.WriteString("  ")
		b.WriteString(def)
		if i < len(defs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")

	return b.String(), nil
}

// generateColumnDefinition generates a column definition for a field. ref is
// the referenced table of a foreign key column.
func (g *DDLGenerator) generateColumnDefinition(t *schema.EntityType, f *schema.Field, ref string) string {
	if f.Name == schema.PrimaryKey {
		if t.Supertype != nil {
			return dialect.QuoteIdentifier(f.Name) + " " + g.dialect.InheritedKey(t.Supertype.Table)
		}
		return dialect.QuoteIdentifier(f.Name) + " " + g.dialect.PrimaryKey()
	}

	parts := []string{dialect.QuoteIdentifier(f.Name), g.dialect.ColumnType(f.Kind)}
	if !f.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if f.Unique {
		parts = append(parts, "UNIQUE")
	}
	if ref != "" {
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)", dialect.QuoteIdentifier(ref), dialect.QuoteIdentifier(schema.PrimaryKey)))
	}
	return strings.Join(parts, " ")
}

// GenerateAssociationTables generates one CREATE TABLE per join table.
// Backrefs sharing a join table produce a single statement.
func (g *DDLGenerator) GenerateAssociationTables() ([]string, error) {
	seen := make(map[string]bool)
	var stmts []string
	for _, t := range g.registry.Types() {
		for _, rel := range t.OwnRelationships() {
			if rel.Linkage != schema.Association || seen[rel.JoinTable] {
				continue
			}
			seen[rel.JoinTable] = true

			target, err := g.registry.Target(rel)
			if err != nil {
				return nil, err
			}
			colType := g.dialect.ColumnType(schema.KindInt)
			stmts = append(stmts, fmt.Sprintf(
				"CREATE TABLE IF NOT EXISTS %s (\n  %s %s REFERENCES %s (%s),\n  %s %s REFERENCES %s (%s)\n);",
				dialect.QuoteIdentifier(rel.JoinTable),
				dialect.QuoteIdentifier(rel.SourceColumn), colType, dialect.QuoteIdentifier(t.Table), dialect.QuoteIdentifier(schema.PrimaryKey),
				dialect.QuoteIdentifier(rel.TargetColumn), colType, dialect.QuoteIdentifier(target.Table), dialect.QuoteIdentifier(schema.PrimaryKey),
			))
		}
	}
	return stmts, nil
}

// inboundReferences maps table -> column -> referenced table for the
// foreign keys that to-many relationships place on their target tables
func inboundReferences(r *schema.Registry) map[string]map[string]string {
	refs := make(map[string]map[string]string)
	for _, t := range r.Types() {
		for _, rel := range t.OwnRelationships() {
			if rel.Multiplicity != schema.Many || rel.Linkage != schema.ForeignKey {
				continue
			}
			target, err := r.Target(rel)
			if err != nil {
				continue
			}
			table := target.Root().Table
			if refs[table] == nil {
				refs[table] = make(map[string]string)
			}
			refs[table][rel.ForeignKey] = t.Root().Table
		}
	}
	return refs
}
