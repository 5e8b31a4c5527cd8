package query

import (
	"fmt"
	"strings"
)

// ColumnSpec selects the fields of one binding. An empty Field projects
// every field of the category. A non-empty Prefix binds the category under
// the alias Prefix_Category so it can occur a second time in one query.
type ColumnSpec struct {
	Prefix   string
	Category string
	Field    string
}

// Binding returns the name the column is bound under
func (c ColumnSpec) Binding() string {
	if c.Prefix != "" {
		return c.Prefix + "_" + c.Category
	}
	return c.Category
}

// AllColumns projects every field of a category
func AllColumns(category string) ColumnSpec {
	return ColumnSpec{Category: category}
}

// Column projects a single field of a category
func Column(category, field string) ColumnSpec {
	return ColumnSpec{Category: category, Field: field}
}

// AliasColumns projects fields of category under the alias prefix_category.
// An empty field projects every field.
func AliasColumns(prefix, category, field string) ColumnSpec {
	return ColumnSpec{Prefix: prefix, Category: category, Field: field}
}

// ColumnFromTuple reads the 1-, 2- and 3-element column forms:
// (category), (category, field) and (prefix, category, field)
func ColumnFromTuple(parts []string) (ColumnSpec, error) {
	switch len(parts) {
	case 1:
		return AllColumns(parts[0]), nil
	case 2:
		return Column(parts[0], parts[1]), nil
	case 3:
		return AliasColumns(parts[0], parts[1], parts[2]), nil
	default:
		return ColumnSpec{}, fmt.Errorf("%w: column takes 1 to 3 elements, got %d", ErrInvalidSpec, len(parts))
	}
}

// JoinType selects how a join is rendered
type JoinType int

const (
	// DefaultJoin follows the Outer flag of the query
	DefaultJoin JoinType = iota
	InnerJoin
	LeftJoin
)

// String returns the SQL keyword of the join type
func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT OUTER JOIN"
	default:
		return "JOIN"
	}
}

// JoinSpec adds one binding to the query. Path is either a bare category
// or alias, whose link to the query is inferred, or Source.relationship.
// Target, when set, names the alias or category the path binds.
type JoinSpec struct {
	Target string
	Path   string
	Type   JoinType
}

// Join joins along a path
func Join(path string) JoinSpec {
	return JoinSpec{Path: path}
}

// JoinAs joins along a path, binding the target alias
func JoinAs(target, path string) JoinSpec {
	return JoinSpec{Target: target, Path: path}
}

// Left returns a copy of the join rendered as a left outer join
func (j JoinSpec) Left() JoinSpec {
	j.Type = LeftJoin
	return j
}

// Inner returns a copy of the join rendered as an inner join
func (j JoinSpec) Inner() JoinSpec {
	j.Type = InnerJoin
	return j
}

func (j JoinSpec) String() string {
	if j.Target != "" {
		return j.Target + " via " + j.Path
	}
	return j.Path
}

// split returns the source binding and relationship of a dotted path
func (j JoinSpec) split() (source, relationship string, ok bool) {
	return strings.Cut(j.Path, ".")
}

// JoinFromTuple reads the 1- and 2-element join forms:
// (path) and (target, path)
func JoinFromTuple(parts []string) (JoinSpec, error) {
	switch len(parts) {
	case 1:
		return Join(parts[0]), nil
	case 2:
		return JoinAs(parts[0], parts[1]), nil
	default:
		return JoinSpec{}, fmt.Errorf("%w: join takes 1 or 2 elements, got %d", ErrInvalidSpec, len(parts))
	}
}

// FilterSpec keeps rows where the field equals any of the values
type FilterSpec struct {
	Binding string
	Field   string
	Values  []interface{}
}

// Filter builds a filter on binding.field
func Filter(binding, field string, values ...interface{}) FilterSpec {
	return FilterSpec{Binding: binding, Field: field, Values: values}
}

// IsZero reports whether the filter is the empty no-op filter
func (f FilterSpec) IsZero() bool {
	return f.Binding == "" && f.Field == "" && len(f.Values) == 0
}

// FilterFromList reads the [binding, field, value...] list form. An empty
// list is a no-op filter.
func FilterFromList(list []interface{}) (FilterSpec, error) {
	if len(list) == 0 {
		return FilterSpec{}, nil
	}
	if len(list) < 3 {
		return FilterSpec{}, fmt.Errorf("%w: filter needs a binding, a field and at least one value", ErrInvalidSpec)
	}
	binding, ok := list[0].(string)
	if !ok {
		return FilterSpec{}, fmt.Errorf("%w: filter binding must be a string, got %T", ErrInvalidSpec, list[0])
	}
	field, ok := list[1].(string)
	if !ok {
		return FilterSpec{}, fmt.Errorf("%w: filter field must be a string, got %T", ErrInvalidSpec, list[1])
	}
	return Filter(binding, field, list[2:]...), nil
}

// MembershipSpec keeps rows whose relationship links at least one of the
// given keys
type MembershipSpec struct {
	Binding      string
	Relationship string
	Keys         []int64
}

// Member builds a membership constraint on binding.relationship
func Member(binding, relationship string, keys ...int64) MembershipSpec {
	return MembershipSpec{Binding: binding, Relationship: relationship, Keys: keys}
}

// Spec describes one tabular query. The first column's binding is the
// root of the query. Outer renders every DefaultJoin as a left outer join.
// Rows come back in store order unless OrderByRoot sorts them by the root
// key.
type Spec struct {
	Columns     []ColumnSpec
	Joins       []JoinSpec
	Filters     []FilterSpec
	Memberships []MembershipSpec
	Outer       bool
	OrderByRoot bool
}
