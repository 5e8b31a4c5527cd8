package crud

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/identifier"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// dispatcher applies parameter tree keys to a record: dates, identifier
// expressions, nested trees, collections and plain scalars
type dispatcher struct {
	registry *schema.Registry
	resolver *identifier.Resolver
	session  *Session
	db       DBTX
	logger   *zap.Logger
	mode     Operation
}

func (d *dispatcher) apply(ctx context.Context, r *Record, params ParameterTree) error {
	for _, key := range params.Keys() {
		if err := d.applyKey(ctx, r, key, params[key]); err != nil {
			return err
		}
	}
	return nil
}

func (d *dispatcher) applyKey(ctx context.Context, r *Record, key string, value interface{}) error {
	t := r.Type
	s, isString := value.(string)

	if rel, ok := t.Relationship(key); ok {
		return d.applyRelationship(ctx, r, rel, value)
	}
	if !t.HasField(key) {
		return &schema.UnknownFieldError{Category: t.Name, Field: key}
	}

	switch {
	case isString && schema.IsDateField(key):
		date, err := schema.ParseDate(s)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name, key, err)
		}
		return r.Set(key, date)

	case isString && strings.HasSuffix(key, "_id") && strings.Contains(s, ":"):
		res, err := d.resolve(ctx, s)
		if err != nil {
			return err
		}
		d.warnMultiple(t.Name, key, s, res.Keys)
		return r.Set(key, res.Keys[0])
	}

	return r.Set(key, value)
}

func (d *dispatcher) applyRelationship(ctx context.Context, r *Record, rel *schema.Relationship, value interface{}) error {
	target, err := d.registry.Target(rel)
	if err != nil {
		return err
	}

	if value == nil {
		return r.Unlink(rel.Name)
	}

	if items, ok := value.([]interface{}); ok {
		if !rel.IsToMany() {
			return fmt.Errorf("%w: %s.%s takes a single record, got a list", ErrInvalidParameter, r.Type.Name, rel.Name)
		}
		for _, item := range items {
			linked, err := d.items(ctx, r, rel, target, item)
			if err != nil {
				return err
			}
			for _, l := range linked {
				if err := r.Link(rel.Name, l); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if tree, ok := asTree(value); ok {
		child, err := d.child(ctx, target, tree)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", r.Type.Name, rel.Name, err)
		}
		return r.Link(rel.Name, child)
	}

	if s, ok := value.(string); ok && strings.Contains(s, ":") {
		linked, err := d.linked(ctx, target, s)
		if err != nil {
			return err
		}
		first := linked[:1]
		if rel.IsToMany() && d.mode == OperationUpdate {
			first = linked
		} else {
			d.warnMultiple(r.Type.Name, rel.Name, s, keysOf(linked))
		}
		for _, l := range first {
			if err := r.Link(rel.Name, l); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("%w: %s.%s expects an identifier expression or a parameter tree, got %v",
		ErrInvalidParameter, r.Type.Name, rel.Name, value)
}

// items turns one list entry into the records it links: a fresh child for
// a tree, existing records for an expression
func (d *dispatcher) items(ctx context.Context, r *Record, rel *schema.Relationship, target *schema.EntityType, item interface{}) ([]*Record, error) {
	if tree, ok := asTree(item); ok {
		child, err := d.child(ctx, target, tree)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.Type.Name, rel.Name, err)
		}
		return []*Record{child}, nil
	}

	s, ok := item.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s items must be identifier expressions or parameter trees, got %v",
			ErrInvalidParameter, r.Type.Name, rel.Name, item)
	}
	linked, err := d.linked(ctx, target, s)
	if err != nil {
		return nil, err
	}
	if d.mode == OperationCreate {
		d.warnMultiple(r.Type.Name, rel.Name, s, keysOf(linked))
		return linked[:1], nil
	}
	return linked, nil
}

// child builds a new record from a nested tree. A CATEGORY in the tree
// selects a subtype of the relationship target.
func (d *dispatcher) child(ctx context.Context, target *schema.EntityType, tree ParameterTree) (*Record, error) {
	t := target
	if _, ok := tree[CategoryKey]; ok {
		name, err := tree.Category()
		if err != nil {
			return nil, err
		}
		if t, err = d.registry.Resolve(name); err != nil {
			return nil, err
		}
		if !t.IsA(target) {
			return nil, fmt.Errorf("%w: %s is not a %s", ErrInvalidParameter, t.Name, target.Name)
		}
	}

	child := NewRecord(t)
	if err := d.apply(ctx, child, tree); err != nil {
		return nil, err
	}
	return child, nil
}

// linked resolves an expression to the existing records it names
func (d *dispatcher) linked(ctx context.Context, target *schema.EntityType, input string) ([]*Record, error) {
	res, err := d.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	category, err := d.registry.Resolve(res.Category)
	if err != nil {
		return nil, err
	}

	// Load through the more specific of the two types
	t := target
	switch {
	case category.IsA(target):
		t = category
	case !target.IsA(category):
		return nil, fmt.Errorf("%w: %s names %s records, expected %s", ErrInvalidParameter, input, category.Name, target.Name)
	}

	out := make([]*Record, 0, len(res.Keys))
	for _, k := range res.Keys {
		rec, err := d.session.Load(ctx, t, k)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (d *dispatcher) resolve(ctx context.Context, input string) (*identifier.Resolution, error) {
	e, err := identifier.Parse(input)
	if err != nil {
		return nil, err
	}
	return d.resolver.ResolveExpr(ctx, d.db, e)
}

func (d *dispatcher) warnMultiple(category, key, input string, keys []int64) {
	if len(keys) < 2 {
		return
	}
	d.logger.Warn("identifier matches several records, using the first",
		zap.String("field", category+"."+key),
		zap.String("expression", input),
		zap.Int64s("keys", keys),
	)
}

func keysOf(records []*Record) []int64 {
	keys := make([]int64, len(records))
	for i, r := range records {
		keys[i] = r.ID
	}
	return keys
}
