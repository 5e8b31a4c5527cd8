// Package query compiles tabular query specs over the entity registry into
// SQL and runs them. A spec names projected columns, the joins that
// connect their bindings, disjunctive equality filters and to-many
// membership constraints.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// Querier is the subset of *sql.DB and *sql.Tx used to run queries
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Builder compiles specs against one registry and dialect
type Builder struct {
	registry *schema.Registry
	dialect  dialect.Dialect
	logger   *zap.Logger
}

// NewBuilder creates a new query builder
func NewBuilder(r *schema.Registry, d dialect.Dialect, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{registry: r, dialect: d, logger: logger}
}

// Registry returns the registry the builder resolves categories against
func (b *Builder) Registry() *schema.Registry {
	return b.registry
}

// Query is a compiled spec
type Query struct {
	SQL     string
	Args    []interface{}
	Columns []string

	logger *zap.Logger
}

// Run executes the query and reads its rows
func (q *Query) Run(ctx context.Context, db Querier) (*Table, error) {
	if q.logger != nil {
		q.logger.Debug("running query", zap.String("sql", q.SQL), zap.Int("args", len(q.Args)))
	}
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanTable(rows, q.Columns)
}

// Execute compiles and runs a spec
func (b *Builder) Execute(ctx context.Context, db Querier, spec Spec) (*Table, error) {
	q, err := b.Compile(spec)
	if err != nil {
		return nil, err
	}
	return q.Run(ctx, db)
}

// Compile turns a spec into SQL. Every call uses a fresh alias table. No
// ORDER BY is emitted unless spec.OrderByRoot is set.
func (b *Builder) Compile(spec Spec) (*Query, error) {
	if len(spec.Columns) == 0 {
		return nil, fmt.Errorf("%w: at least one column is required", ErrInvalidSpec)
	}

	c := &compiler{
		registry: b.registry,
		dialect:  b.dialect,
		spec:     spec,
		aliases:  b.registry.NewAliasTable(),
		bindings: make(map[string]*schema.Binding),
		bound:    make(map[string]bool),
		labels:   make(map[string]bool),
	}

	if err := c.project(); err != nil {
		return nil, err
	}
	if err := c.constrain(); err != nil {
		return nil, err
	}

	root := c.projections[0].binding
	c.bind(root)
	for _, j := range spec.Joins {
		if err := c.join(j); err != nil {
			return nil, err
		}
	}
	for _, ref := range c.referenced {
		if !c.bound[ref.Name] {
			return nil, fmt.Errorf("%w: %s is used by the query but is neither its root nor joined", ErrNotJoined, ref.Name)
		}
	}

	q, err := c.render(root)
	if err != nil {
		return nil, err
	}
	q.logger = b.logger
	return q, nil
}

type projection struct {
	binding *schema.Binding
	field   *schema.Field
	label   string
}

// compiler holds the state of a single Compile call
type compiler struct {
	registry *schema.Registry
	dialect  dialect.Dialect
	spec     Spec
	aliases  *schema.AliasTable

	bindings   map[string]*schema.Binding
	bound      map[string]bool
	boundOrder []*schema.Binding
	referenced []*schema.Binding

	projections []projection
	labels      map[string]bool
	joins       []string
	where       []*PredicateGroup
	subqueries  int
}

// lookup resolves a name once per query so every use shares one binding
func (c *compiler) lookup(name string) (*schema.Binding, error) {
	if b, ok := c.bindings[name]; ok {
		return b, nil
	}
	b, err := c.aliases.Resolve(name)
	if err != nil {
		return nil, err
	}
	c.bindings[name] = b
	return b, nil
}

func (c *compiler) alias(name string, t *schema.EntityType) (*schema.Binding, error) {
	if b, ok := c.bindings[name]; ok {
		if b.Alias && b.Type == t {
			return b, nil
		}
		return nil, fmt.Errorf("%w: alias %s is bound to %s", ErrInvalidSpec, name, b.Type.Name)
	}
	b, err := c.aliases.RegisterAlias(name, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	c.bindings[name] = b
	return b, nil
}

func (c *compiler) reference(b *schema.Binding) {
	for _, r := range c.referenced {
		if r == b {
			return
		}
	}
	c.referenced = append(c.referenced, b)
}

func (c *compiler) bind(b *schema.Binding) {
	c.bound[b.Name] = true
	c.boundOrder = append(c.boundOrder, b)
}

func (c *compiler) project() error {
	for _, col := range c.spec.Columns {
		if col.Category == "" {
			return fmt.Errorf("%w: column without category", ErrInvalidSpec)
		}

		var (
			b   *schema.Binding
			err error
		)
		if col.Prefix != "" {
			t, rerr := c.registry.Resolve(col.Category)
			if rerr != nil {
				return rerr
			}
			b, err = c.alias(col.Binding(), t)
		} else {
			b, err = c.lookup(col.Category)
		}
		if err != nil {
			return err
		}

		fields := b.Type.AllFields()
		if col.Field != "" {
			f, ok := b.Type.Field(col.Field)
			if !ok {
				return &schema.UnknownFieldError{Category: b.Type.Name, Field: col.Field}
			}
			fields = []*schema.Field{f}
		}
		for _, f := range fields {
			label := b.Name + "_" + f.Name
			if c.labels[label] {
				continue
			}
			c.labels[label] = true
			c.projections = append(c.projections, projection{binding: b, field: f, label: label})
		}
		c.reference(b)
	}
	return nil
}

func (c *compiler) constrain() error {
	for _, f := range c.spec.Filters {
		if f.IsZero() {
			continue
		}
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: filter on %s.%s has no values", ErrInvalidSpec, f.Binding, f.Field)
		}
		b, err := c.lookup(f.Binding)
		if err != nil {
			return err
		}
		field, ok := b.Type.Field(f.Field)
		if !ok {
			return &schema.UnknownFieldError{Category: b.Type.Name, Field: f.Field}
		}

		col := c.column(b, field)
		group := &PredicateGroup{Or: true}
		for _, v := range f.Values {
			value, err := filterValue(field, v)
			if err != nil {
				return fmt.Errorf("filter on %s.%s: %w", f.Binding, f.Field, err)
			}
			group.Conditions = append(group.Conditions, &Condition{Column: col, Operator: OpEqual, Value: value})
		}
		c.where = append(c.where, group)
		c.reference(b)
	}

	for _, m := range c.spec.Memberships {
		b, err := c.lookup(m.Binding)
		if err != nil {
			return err
		}
		rel, ok := b.Type.Relationship(m.Relationship)
		if !ok {
			return &UnknownRelationshipError{Category: b.Type.Name, Relationship: m.Relationship}
		}
		cond, err := c.membership(b, rel, m.Keys)
		if err != nil {
			return err
		}
		c.where = append(c.where, And(cond))
		c.reference(b)
	}
	return nil
}

func filterValue(f *schema.Field, v interface{}) (interface{}, error) {
	if s, ok := v.(string); ok && schema.IsDateField(f.Name) {
		return schema.ParseDate(s)
	}
	return f.Kind.Coerce(v)
}

func (c *compiler) membership(b *schema.Binding, rel *schema.Relationship, keys []int64) (*Condition, error) {
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = k
	}

	if rel.Multiplicity == schema.One {
		col, err := c.fieldColumn(b, rel.ForeignKey)
		if err != nil {
			return nil, err
		}
		return &Condition{Column: col, Operator: OpIn, Value: values}, nil
	}

	c.subqueries++
	alias := fmt.Sprintf("%s__m%d", b.Name, c.subqueries)
	sq := &Subquery{Alias: alias, Keys: values}

	if rel.Linkage == schema.Association {
		sq.Table = rel.JoinTable
		sq.Correlation = dialect.Qualify(alias, rel.SourceColumn) + " = " + c.idColumn(b)
		sq.KeyColumn = rel.TargetColumn
	} else {
		target, err := c.registry.Target(rel)
		if err != nil {
			return nil, err
		}
		sq.Table = target.Root().Table
		sq.Correlation = dialect.Qualify(alias, rel.ForeignKey) + " = " + c.idColumn(b)
		sq.KeyColumn = schema.PrimaryKey
	}
	return &Condition{Operator: OpExists, Exists: sq}, nil
}

func (c *compiler) join(j JoinSpec) error {
	jt := j.Type
	if jt == DefaultJoin && c.spec.Outer {
		jt = LeftJoin
	}

	var dst *schema.Binding
	if srcName, relName, dotted := j.split(); dotted {
		src, err := c.lookup(srcName)
		if err != nil {
			return err
		}
		if !c.bound[src.Name] {
			return fmt.Errorf("%w: join %s starts from %s", ErrNotJoined, j, src.Name)
		}
		rel, ok := src.Type.Relationship(relName)
		if !ok {
			return &UnknownRelationshipError{Category: src.Type.Name, Relationship: relName}
		}
		target, err := c.registry.Target(rel)
		if err != nil {
			return err
		}

		if j.Target != "" {
			if dst, err = c.lookup(j.Target); err != nil {
				return err
			}
			if !dst.Type.IsA(target) {
				return fmt.Errorf("%w: join %s: %s is a %s, not a %s", ErrInvalidSpec, j, dst.Name, dst.Type.Name, target.Name)
			}
		} else if dst, err = c.inferTarget(target); err != nil {
			return err
		}
		if c.bound[dst.Name] {
			return &AmbiguousJoinError{Name: dst.Name}
		}
		if err := c.link(jt, src, rel, dst, false); err != nil {
			return err
		}
	} else {
		name := j.Target
		if name == "" {
			name = j.Path
		}
		if name == "" {
			return fmt.Errorf("%w: empty join", ErrInvalidSpec)
		}
		var err error
		if dst, err = c.lookup(name); err != nil {
			return err
		}
		if c.bound[dst.Name] {
			return &AmbiguousJoinError{Name: dst.Name}
		}
		src, rel, reverse, err := c.inferPath(dst)
		if err != nil {
			return err
		}
		if err := c.link(jt, src, rel, dst, reverse); err != nil {
			return err
		}
	}

	c.bind(dst)
	return nil
}

// inferTarget picks the first referenced, unbound category that is a
// target, falling back to the target category itself
func (c *compiler) inferTarget(target *schema.EntityType) (*schema.Binding, error) {
	for _, b := range c.referenced {
		if !c.bound[b.Name] && !b.Alias && b.Type.IsA(target) {
			return b, nil
		}
	}
	return c.lookup(target.Name)
}

type candidate struct {
	src     *schema.Binding
	rel     *schema.Relationship
	reverse bool
}

// inferPath finds the relationship linking dst to the bound bindings,
// preferring relationships declared on the bound side
func (c *compiler) inferPath(dst *schema.Binding) (*schema.Binding, *schema.Relationship, bool, error) {
	var forward, backward []candidate
	for _, src := range c.boundOrder {
		for _, rel := range src.Type.AllRelationships() {
			if t, err := c.registry.Target(rel); err == nil && dst.Type.IsA(t) {
				forward = append(forward, candidate{src: src, rel: rel})
			}
		}
		for _, rel := range dst.Type.AllRelationships() {
			if t, err := c.registry.Target(rel); err == nil && src.Type.IsA(t) {
				backward = append(backward, candidate{src: src, rel: rel, reverse: true})
			}
		}
	}

	cands := forward
	if len(cands) == 0 {
		cands = backward
	}
	switch len(cands) {
	case 0:
		return nil, nil, false, fmt.Errorf("%w: nothing in the query links to %s", ErrNoJoinPath, dst.Name)
	case 1:
		return cands[0].src, cands[0].rel, cands[0].reverse, nil
	}

	paths := make([]string, len(cands))
	for i, cand := range cands {
		if cand.reverse {
			paths[i] = dst.Name + "." + cand.rel.Name
		} else {
			paths[i] = cand.src.Name + "." + cand.rel.Name
		}
	}
	return nil, nil, false, &AmbiguousJoinError{
		Name:   dst.Name,
		Reason: fmt.Sprintf("linked by %s; join through one of them explicitly", strings.Join(paths, ", ")),
	}
}

// link renders the join from src to dst along rel. reverse means rel is
// declared on dst and points back at src.
func (c *compiler) link(jt JoinType, src *schema.Binding, rel *schema.Relationship, dst *schema.Binding, reverse bool) error {
	table := c.tableExpr(dst)
	srcID, dstID := c.idColumn(src), c.idColumn(dst)

	if rel.Linkage == schema.Association {
		l := dst.Name + "__link"
		near, far := rel.SourceColumn, rel.TargetColumn
		if reverse {
			near, far = far, near
		}
		c.joins = append(c.joins,
			fmt.Sprintf("%s %s AS %s ON %s = %s", jt, dialect.QuoteIdentifier(rel.JoinTable), dialect.QuoteIdentifier(l), dialect.Qualify(l, near), srcID),
			fmt.Sprintf("%s %s ON %s = %s", jt, table, dstID, dialect.Qualify(l, far)),
		)
		return nil
	}

	// The foreign key lives on the owner of a to-one relationship and on
	// the target of a to-many relationship.
	fkOnSrc := (rel.Multiplicity == schema.One) != reverse
	var on string
	if fkOnSrc {
		fk, err := c.fieldColumn(src, rel.ForeignKey)
		if err != nil {
			return err
		}
		on = dstID + " = " + fk
	} else {
		fk, err := c.fieldColumn(dst, rel.ForeignKey)
		if err != nil {
			return err
		}
		on = fk + " = " + srcID
	}
	c.joins = append(c.joins, fmt.Sprintf("%s %s ON %s", jt, table, on))
	return nil
}

// tableAlias names the table of one chain member inside a binding. The
// binding's own type uses the binding name.
func tableAlias(b *schema.Binding, owner *schema.EntityType) string {
	if owner == b.Type {
		return b.Name
	}
	return b.Name + "__" + owner.Name
}

// tableExpr renders a binding as a table, or as a parenthesized inner
// join of its inheritance chain
func (c *compiler) tableExpr(b *schema.Binding) string {
	chain := b.Type.Chain()
	if len(chain) == 1 {
		return dialect.QuoteIdentifier(b.Type.Table) + " AS " + dialect.QuoteIdentifier(b.Name)
	}

	root := chain[0]
	rootAlias := tableAlias(b, root)
	var s strings.Builder
	fmt.Fprintf(&s, "(%s AS %s", dialect.QuoteIdentifier(root.Table), dialect.QuoteIdentifier(rootAlias))
	for _, t := range chain[1:] {
		a := tableAlias(b, t)
		fmt.Fprintf(&s, " JOIN %s AS %s ON %s = %s",
			dialect.QuoteIdentifier(t.Table), dialect.QuoteIdentifier(a),
			dialect.Qualify(a, schema.PrimaryKey), dialect.Qualify(rootAlias, schema.PrimaryKey))
	}
	s.WriteString(")")
	return s.String()
}

func (c *compiler) column(b *schema.Binding, f *schema.Field) string {
	return dialect.Qualify(tableAlias(b, f.Owner), f.Name)
}

func (c *compiler) idColumn(b *schema.Binding) string {
	return dialect.Qualify(b.Name, schema.PrimaryKey)
}

func (c *compiler) fieldColumn(b *schema.Binding, name string) (string, error) {
	f, ok := b.Type.Field(name)
	if !ok {
		return "", &schema.UnknownFieldError{Category: b.Type.Name, Field: name}
	}
	return c.column(b, f), nil
}

func (c *compiler) render(root *schema.Binding) (*Query, error) {
	selects := make([]string, len(c.projections))
	labels := make([]string, len(c.projections))
	for i, p := range c.projections {
		selects[i] = c.column(p.binding, p.field) + " AS " + dialect.QuoteIdentifier(p.label)
		labels[i] = p.label
	}

	var s strings.Builder
	s.WriteString("SELECT ")
	s.WriteString(strings.Join(selects, ", "))
	s.WriteString(" FROM ")
	s.WriteString(c.tableExpr(root))
	for _, j := range c.joins {
		s.WriteString(" ")
		s.WriteString(j)
	}

	p := &params{dialect: c.dialect}
	where, err := (&PredicateGroup{Groups: c.where}).ToSQL(p)
	if err != nil {
		return nil, err
	}
	if where != "" {
		s.WriteString(" WHERE ")
		s.WriteString(where)
	}
	if c.spec.OrderByRoot {
		s.WriteString(" ORDER BY ")
		s.WriteString(c.idColumn(root))
	}

	return &Query{SQL: s.String(), Args: p.args, Columns: labels}, nil
}
