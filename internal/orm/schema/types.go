// Package schema describes the lab record categories: their scalar fields,
// relationships and inheritance, and the registry they are looked up in.
package schema

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Kind is the scalar kind of a field
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindFloat
	KindBool
	KindDateTime
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "str"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "int", "integer":
		return KindInt, nil
	case "str", "string", "text":
		return KindString, nil
	case "float", "real":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "datetime", "date", "timestamp":
		return KindDateTime, nil
	default:
		return 0, fmt.Errorf("unknown kind: %s", s)
	}
}

// Field is a scalar column of an entity type
type Field struct {
	Name     string
	Kind     Kind
	Unique   bool
	Nullable bool

	// Owner is the entity type whose table stores the column
	Owner *EntityType
}

// Multiplicity is the cardinality of a relationship
type Multiplicity int

const (
	One Multiplicity = iota
	Many
)

// String returns the string representation of the multiplicity
func (m Multiplicity) String() string {
	if m == Many {
		return "many"
	}
	return "one"
}

// Linkage is how a relationship is stored
type Linkage int

const (
	// ForeignKey links through a column on the source (to-one) or the
	// target root table (to-many).
	ForeignKey Linkage = iota
	// Association links through rows of a join table.
	Association
)

// String returns the string representation of the linkage
func (l Linkage) String() string {
	if l == Association {
		return "association"
	}
	return "foreign_key"
}

// Relationship describes a named link from one entity type to another
type Relationship struct {
	Name         string
	Target       string
	Multiplicity Multiplicity
	Linkage      Linkage

	// ForeignKey is the column carrying the link for ForeignKey linkage
	ForeignKey string

	// Association linkage
	JoinTable    string
	SourceColumn string
	TargetColumn string

	// Owner is the entity type declaring the relationship
	Owner *EntityType
}

// IsToMany reports whether the relationship holds a collection
func (r *Relationship) IsToMany() bool {
	return r.Multiplicity == Many
}

// EntityType is the descriptor of one category
type EntityType struct {
	Name  string
	Table string

	// Supertype is the parent type for joined-table inheritance
	Supertype *EntityType

	// Discriminator is the root column holding the polymorphic identity
	Discriminator string

	// Identity is the discriminator value of this type
	Identity string

	fields        []*Field
	fieldIndex    map[string]*Field
	relationships []*Relationship
	relIndex      map[string]*Relationship
}

func newEntityType(name, table string) *EntityType {
	t := &EntityType{
		Name:       name,
		Table:      table,
		fieldIndex: make(map[string]*Field),
		relIndex:   make(map[string]*Relationship),
	}
	return t
}

// Chain returns the inheritance chain, root first
func (t *EntityType) Chain() []*EntityType {
	var chain []*EntityType
	for cur := t; cur != nil; cur = cur.Supertype {
		chain = append([]*EntityType{cur}, chain...)
	}
	return chain
}

// Root returns the topmost supertype, or t itself
func (t *EntityType) Root() *EntityType {
	cur := t
	for cur.Supertype != nil {
		cur = cur.Supertype
	}
	return cur
}

// IsA reports whether t is other or one of its subtypes
func (t *EntityType) IsA(other *EntityType) bool {
	for cur := t; cur != nil; cur = cur.Supertype {
		if cur == other {
			return true
		}
	}
	return false
}

// Polymorphic reports whether the type is part of an inheritance hierarchy
func (t *EntityType) Polymorphic() bool {
	return t.Supertype != nil || t.Discriminator != ""
}

// DiscriminatorField returns the discriminator column name of the hierarchy
func (t *EntityType) DiscriminatorField() string {
	return t.Root().Discriminator
}

// OwnFields returns the fields stored in the type's own table
func (t *EntityType) OwnFields() []*Field {
	out := make([]*Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// OwnRelationships returns the relationships declared on the type itself
func (t *EntityType) OwnRelationships() []*Relationship {
	out := make([]*Relationship, len(t.relationships))
	copy(out, t.relationships)
	return out
}

// AllFields returns every field visible on the type, root fields first.
// The primary key appears once even though each table in the chain has it.
func (t *EntityType) AllFields() []*Field {
	var out []*Field
	seen := make(map[string]bool)
	for _, et := range t.Chain() {
		for _, f := range et.fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			out = append(out, f)
		}
	}
	return out
}

// AllRelationships returns every relationship visible on the type
func (t *EntityType) AllRelationships() []*Relationship {
	var out []*Relationship
	for _, et := range t.Chain() {
		out = append(out, et.relationships...)
	}
	return out
}

// Field looks up a field on the type or its supertypes. The primary key
// resolves to the type's own table.
func (t *EntityType) Field(name string) (*Field, bool) {
	for cur := t; cur != nil; cur = cur.Supertype {
		if f, ok := cur.fieldIndex[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// Relationship looks up a relationship on the type or its supertypes
func (t *EntityType) Relationship(name string) (*Relationship, bool) {
	for cur := t; cur != nil; cur = cur.Supertype {
		if r, ok := cur.relIndex[name]; ok {
			return r, true
		}
	}
	return nil, false
}

// HasField reports whether the type has a field with the given name
func (t *EntityType) HasField(name string) bool {
	_, ok := t.Field(name)
	return ok
}

// HasRelationship reports whether the type has a relationship with the given name
func (t *EntityType) HasRelationship(name string) bool {
	_, ok := t.Relationship(name)
	return ok
}

// SettableFields returns the sorted names a parameter tree may set
func (t *EntityType) SettableFields() []string {
	disc := t.DiscriminatorField()
	var names []string
	for _, f := range t.AllFields() {
		if f.Name == PrimaryKey || f.Name == disc {
			continue
		}
		names = append(names, f.Name)
	}
	for _, r := range t.AllRelationships() {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// PrimaryKey is the integer key column of every entity type
const PrimaryKey = "id"

// toSnakeCase converts PascalCase to snake_case, keeping acronyms together
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
