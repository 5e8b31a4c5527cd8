package schema

import "fmt"

// Binding is one named occurrence of an entity type inside a query. A
// category bound under its own name and every alias of it are distinct
// bindings sharing the same descriptor.
type Binding struct {
	Name  string
	Type  *EntityType
	Alias bool
}

// AliasTable holds the aliases of a single query. It is never shared
// between queries.
type AliasTable struct {
	registry *Registry
	aliases  map[string]*Binding
	order    []string
}

// RegisterAlias binds name to a fresh occurrence of t
func (a *AliasTable) RegisterAlias(name string, t *EntityType) (*Binding, error) {
	if name == "" {
		return nil, fmt.Errorf("alias name is empty")
	}
	if _, exists := a.aliases[name]; exists {
		return nil, fmt.Errorf("alias %s is already registered", name)
	}
	if a.registry.Exists(name) {
		return nil, fmt.Errorf("alias %s collides with a category name", name)
	}

	b := &Binding{Name: name, Type: t, Alias: true}
	a.aliases[name] = b
	a.order = append(a.order, name)
	return b, nil
}

// Resolve looks a name up among the aliases, then among the categories
func (a *AliasTable) Resolve(name string) (*Binding, error) {
	if b, ok := a.aliases[name]; ok {
		return b, nil
	}
	t, err := a.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &Binding{Name: name, Type: t}, nil
}

// Aliases returns the alias names in registration order
func (a *AliasTable) Aliases() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Len returns the number of aliases
func (a *AliasTable) Len() int {
	return len(a.aliases)
}
