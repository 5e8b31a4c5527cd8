package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error
type ValidationError struct {
	Category string
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Category, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Validator checks relationships and inheritance across the registry
type Validator struct {
	registry *Registry
	errors   []*ValidationError
}

// NewValidator creates a validator over a registry
func NewValidator(r *Registry) *Validator {
	return &Validator{registry: r}
}

// Validate runs every check and returns a combined error
func (v *Validator) Validate() error {
	v.errors = nil

	tables := make(map[string]string)
	junctions := make(map[string][2]string)
	for _, t := range v.registry.Types() {
		if other, taken := tables[t.Table]; taken {
			v.add(t.Name, "", fmt.Sprintf("table %s already used by %s", t.Table, other))
		}
		tables[t.Table] = t.Name

		v.validateInheritance(t)
		for _, rel := range t.OwnRelationships() {
			v.validateRelationship(t, rel, junctions)
		}
	}

	if len(v.errors) == 0 {
		return nil
	}
	msgs := make([]string, len(v.errors))
	for i, e := range v.errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("schema validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

// Errors returns the errors of the last Validate call
func (v *Validator) Errors() []*ValidationError {
	return v.errors
}

func (v *Validator) validateInheritance(t *EntityType) {
	if t.Supertype == nil {
		return
	}
	if t.Identity == "" {
		v.add(t.Name, "", "subtype has no polymorphic identity")
	}
	if t.Root().Discriminator == "" {
		v.add(t.Name, "", fmt.Sprintf("root %s declares no discriminator", t.Root().Name))
	}
	for _, sibling := range v.registry.Subtypes(t.Supertype.Name) {
		if sibling != t && sibling.Identity == t.Identity {
			v.add(t.Name, "", fmt.Sprintf("identity %q also used by %s", t.Identity, sibling.Name))
		}
	}
}

func (v *Validator) validateRelationship(t *EntityType, rel *Relationship, junctions map[string][2]string) {
	target, err := v.registry.Resolve(rel.Target)
	if err != nil {
		v.add(t.Name, rel.Name, fmt.Sprintf("target %s is not registered", rel.Target))
		return
	}

	switch {
	case rel.Linkage == Association:
		if rel.JoinTable == "" || rel.SourceColumn == "" || rel.TargetColumn == "" {
			v.add(t.Name, rel.Name, "association needs a join table and both key columns")
			return
		}
		pair := [2]string{rel.SourceColumn, rel.TargetColumn}
		if prev, seen := junctions[rel.JoinTable]; seen {
			if prev != pair && prev != [2]string{pair[1], pair[0]} {
				v.add(t.Name, rel.Name, fmt.Sprintf("join table %s declared with columns %v and %v", rel.JoinTable, prev, pair))
			}
		} else {
			junctions[rel.JoinTable] = pair
		}
	case rel.Multiplicity == One:
		f, ok := t.Field(rel.ForeignKey)
		if !ok || f.Kind != KindInt {
			v.add(t.Name, rel.Name, fmt.Sprintf("foreign key %s is not an int field", rel.ForeignKey))
		}
	default:
		f, ok := target.Root().fieldIndex[rel.ForeignKey]
		if !ok || f.Kind != KindInt {
			v.add(t.Name, rel.Name, fmt.Sprintf("foreign key %s is not an int field of %s", rel.ForeignKey, target.Root().Name))
		}
	}
}

func (v *Validator) add(category, field, msg string) {
	v.errors = append(v.errors, &ValidationError{Category: category, Field: field, Message: msg})
}
