package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps category names to entity types. It is built once at startup
// and read-only afterwards; per-query aliases live in an AliasTable.
type Registry struct {
	types map[string]*EntityType
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*EntityType),
	}
}

// Register adds an entity type. Supertypes must be registered first.
func (r *Registry) Register(t *EntityType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("category %s is already registered", t.Name)
	}
	if t.Supertype != nil {
		if super, ok := r.types[t.Supertype.Name]; !ok || super != t.Supertype {
			return fmt.Errorf("category %s: supertype %s is not registered", t.Name, t.Supertype.Name)
		}
	}

	r.types[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister registers the types built by each builder and panics on error
func (r *Registry) MustRegister(builders ...*Builder) {
	for _, b := range builders {
		t, err := b.Build()
		if err != nil {
			panic(err)
		}
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the entity type registered under name
func (r *Registry) Resolve(name string) (*EntityType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	if !ok {
		return nil, &UnknownCategoryError{Name: name}
	}
	return t, nil
}

// Exists reports whether a category is registered
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[name]
	return ok
}

// Categories returns the sorted category names
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Types returns the entity types in registration order
func (r *Registry) Types() []*EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*EntityType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// Count returns the number of registered categories
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Subtypes returns the direct subtypes of a category in registration order
func (r *Registry) Subtypes(name string) []*EntityType {
	var out []*EntityType
	for _, t := range r.Types() {
		if t.Supertype != nil && t.Supertype.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// Target resolves the target entity type of a relationship
func (r *Registry) Target(rel *Relationship) (*EntityType, error) {
	return r.Resolve(rel.Target)
}

// NewAliasTable returns an empty alias table over the registry
func (r *Registry) NewAliasTable() *AliasTable {
	return &AliasTable{
		registry: r,
		aliases:  make(map[string]*Binding),
	}
}

// Validate checks cross-type consistency of all registered types
func (r *Registry) Validate() error {
	v := NewValidator(r)
	return v.Validate()
}
