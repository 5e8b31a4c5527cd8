package identifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/query"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// Resolver evaluates identifier expressions to primary keys
type Resolver struct {
	registry *schema.Registry
	builder  *query.Builder
	logger   *zap.Logger
}

// NewResolver creates a new resolver running its lookups through builder
func NewResolver(r *schema.Registry, b *query.Builder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{registry: r, builder: b, logger: logger}
}

// Resolution is the result of evaluating one expression
type Resolution struct {
	Category string
	Keys     []int64
	Query    *query.Query
}

// Resolve parses input and returns the distinct keys of the matching
// records in query order
func (r *Resolver) Resolve(ctx context.Context, db query.Querier, input string) ([]int64, error) {
	e, err := Parse(input)
	if err != nil {
		return nil, err
	}
	res, err := r.ResolveExpr(ctx, db, e)
	if err != nil {
		return nil, err
	}
	return res.Keys, nil
}

// ResolveExpr evaluates a parsed expression. Nested expressions are
// resolved first; an empty nested result fails the whole expression.
func (r *Resolver) ResolveExpr(ctx context.Context, db query.Querier, e *Expr) (*Resolution, error) {
	t, err := r.registry.Resolve(e.Category)
	if err != nil {
		return nil, err
	}
	if len(e.Conditions) == 0 {
		return nil, &MalformedExpressionError{Input: e.String(), Reason: "no conditions"}
	}

	// Sorted so the first match is stable
	spec := query.Spec{
		Columns:     []query.ColumnSpec{query.Column(t.Name, schema.PrimaryKey)},
		OrderByRoot: true,
	}
	for _, cond := range e.Conditions {
		switch v := cond.Value.(type) {
		case Literal:
			if _, ok := t.Field(cond.Field); ok {
				spec.Filters = append(spec.Filters, query.Filter(t.Name, cond.Field, v.Text))
				continue
			}
			if _, ok := t.Relationship(cond.Field); ok {
				return nil, &MalformedExpressionError{
					Input:  e.String(),
					Reason: fmt.Sprintf("%s.%s is a relationship and needs an identifier expression", t.Name, cond.Field),
				}
			}
			return nil, &schema.UnknownFieldError{Category: t.Name, Field: cond.Field}

		case Nested:
			if !t.HasField(cond.Field) && !t.HasRelationship(cond.Field) {
				return nil, &schema.UnknownFieldError{Category: t.Name, Field: cond.Field}
			}
			sub, err := r.ResolveExpr(ctx, db, v.Expr)
			if err != nil {
				return nil, err
			}
			if err := constrain(&spec, t, cond.Field, sub.Keys); err != nil {
				return nil, err
			}

		default:
			return nil, &MalformedExpressionError{Input: e.String(), Reason: fmt.Sprintf("field %s has no value", cond.Field)}
		}
	}

	q, err := r.builder.Compile(spec)
	if err != nil {
		return nil, err
	}
	table, err := q.Run(ctx, db)
	if err != nil {
		return nil, err
	}

	label := t.Name + "_" + schema.PrimaryKey
	table, err = table.DistinctBy(label)
	if err != nil {
		return nil, err
	}
	col, err := table.Column(label)
	if err != nil {
		return nil, err
	}
	keys := make([]int64, 0, len(col))
	for _, v := range col {
		k, ok := schema.AsInt(v)
		if !ok {
			return nil, fmt.Errorf("%s key %v is not an integer", t.Name, v)
		}
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		last := e.Conditions[len(e.Conditions)-1]
		return nil, &NotFoundError{Category: t.Name, Field: last.Field, Value: valueText(last.Value)}
	}

	r.logger.Debug("resolved identifier",
		zap.String("expression", e.String()),
		zap.Int64s("keys", keys),
	)
	return &Resolution{Category: t.Name, Keys: keys, Query: q}, nil
}

// constrain restricts field to the resolved keys: a column by equality,
// a to-one relationship through its foreign key, a to-many relationship
// by membership
func constrain(spec *query.Spec, t *schema.EntityType, field string, keys []int64) error {
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = k
	}

	if t.HasField(field) {
		spec.Filters = append(spec.Filters, query.Filter(t.Name, field, values...))
		return nil
	}

	rel, ok := t.Relationship(field)
	if !ok {
		return &schema.UnknownFieldError{Category: t.Name, Field: field}
	}
	if rel.IsToMany() {
		spec.Memberships = append(spec.Memberships, query.Member(t.Name, rel.Name, keys...))
		return nil
	}
	spec.Filters = append(spec.Filters, query.Filter(t.Name, rel.ForeignKey, values...))
	return nil
}
