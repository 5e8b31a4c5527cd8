package crud

import (
	"fmt"
	"sort"

	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// Record is an in-memory instance of an entity type. It is transient until
// a session flushes it and assigns its key.
type Record struct {
	Type *schema.EntityType
	ID   int64

	values    map[string]interface{}
	changed   map[string]bool
	toOne     map[string]*Record
	links     map[string][]*Record
	persisted bool
}

// NewRecord creates a transient record of type t
func NewRecord(t *schema.EntityType) *Record {
	return &Record{
		Type:    t,
		values:  make(map[string]interface{}),
		changed: make(map[string]bool),
		toOne:   make(map[string]*Record),
		links:   make(map[string][]*Record),
	}
}

// loaded returns a reference to an existing row
func loaded(t *schema.EntityType, id int64) *Record {
	r := NewRecord(t)
	r.ID = id
	r.persisted = true
	return r
}

// Persisted reports whether the record has a row in the store
func (r *Record) Persisted() bool {
	return r.persisted
}

// Set assigns a scalar field, converting the value to the field's kind
func (r *Record) Set(field string, value interface{}) error {
	f, ok := r.Type.Field(field)
	if !ok {
		return &schema.UnknownFieldError{Category: r.Type.Name, Field: field}
	}
	if f.Name == schema.PrimaryKey || f.Name == r.Type.DiscriminatorField() {
		return fmt.Errorf("%w: %s.%s is managed by the store", ErrInvalidParameter, r.Type.Name, field)
	}

	v, err := f.Kind.Coerce(value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", r.Type.Name, field, err)
	}
	r.values[field] = v
	r.changed[field] = true
	return nil
}

// Get returns the value of a scalar field set on the record
func (r *Record) Get(field string) (interface{}, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Values returns a copy of the scalar fields set on the record
func (r *Record) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Link attaches target through the named relationship. A to-one link
// replaces the previous target; a to-many link appends.
func (r *Record) Link(relationship string, target *Record) error {
	rel, ok := r.Type.Relationship(relationship)
	if !ok {
		return &schema.UnknownFieldError{Category: r.Type.Name, Field: relationship}
	}
	if target == nil {
		return fmt.Errorf("%w: nil target for %s.%s", ErrInvalidParameter, r.Type.Name, relationship)
	}

	if !rel.IsToMany() {
		r.toOne[rel.Name] = target
		return nil
	}
	for _, existing := range r.links[rel.Name] {
		if existing == target {
			return nil
		}
	}
	r.links[rel.Name] = append(r.links[rel.Name], target)
	return nil
}

// Unlink clears a to-one relationship
func (r *Record) Unlink(relationship string) error {
	rel, ok := r.Type.Relationship(relationship)
	if !ok {
		return &schema.UnknownFieldError{Category: r.Type.Name, Field: relationship}
	}
	if rel.IsToMany() {
		return fmt.Errorf("%w: %s.%s is a collection", ErrInvalidParameter, r.Type.Name, relationship)
	}
	delete(r.toOne, rel.Name)
	return r.setColumn(rel.ForeignKey, nil)
}

// Linked returns the records attached through a relationship and not yet flushed
func (r *Record) Linked(relationship string) []*Record {
	if target, ok := r.toOne[relationship]; ok {
		return []*Record{target}
	}
	out := make([]*Record, len(r.links[relationship]))
	copy(out, r.links[relationship])
	return out
}

// setColumn assigns a column without the settable check, used for keys
func (r *Record) setColumn(field string, value interface{}) error {
	if !r.Type.HasField(field) {
		return &schema.UnknownFieldError{Category: r.Type.Name, Field: field}
	}
	r.values[field] = value
	r.changed[field] = true
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
