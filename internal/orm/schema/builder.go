package schema

import (
	"fmt"

	"github.com/jinzhu/inflection"
)

// FieldOption configures a field declaration
type FieldOption func(*Field)

// Unique marks a field as carrying a uniqueness constraint
func Unique(f *Field) { f.Unique = true }

// Required marks a field as NOT NULL
func Required(f *Field) { f.Nullable = false }

// Builder declares an entity type field by field
type Builder struct {
	entity *EntityType
	errors []error
}

// Define starts the declaration of an entity type. The table name defaults to
// the pluralized snake_case form of the name.
func Define(name string) *Builder {
	table := inflection.Plural(toSnakeCase(name))
	b := &Builder{entity: newEntityType(name, table)}
	b.addField(&Field{Name: PrimaryKey, Kind: KindInt})
	return b
}

// Table overrides the table name
func (b *Builder) Table(name string) *Builder {
	b.entity.Table = name
	return b
}

// Extends declares the type as a joined-table subtype of super
func (b *Builder) Extends(super *EntityType, identity string) *Builder {
	if super == nil {
		b.errors = append(b.errors, fmt.Errorf("%s: nil supertype", b.entity.Name))
		return b
	}
	b.entity.Supertype = super
	b.entity.Identity = identity
	return b
}

// Discriminator declares the string column holding the polymorphic identity
// of the hierarchy rooted at this type
func (b *Builder) Discriminator(name, identity string) *Builder {
	b.entity.Discriminator = name
	b.entity.Identity = identity
	return b.Text(name)
}

// Int declares an integer field
func (b *Builder) Int(name string, opts ...FieldOption) *Builder {
	return b.field(name, KindInt, opts)
}

// Text declares a string field
func (b *Builder) Text(name string, opts ...FieldOption) *Builder {
	return b.field(name, KindString, opts)
}

// Float declares a float field
func (b *Builder) Float(name string, opts ...FieldOption) *Builder {
	return b.field(name, KindFloat, opts)
}

// Bool declares a boolean field
func (b *Builder) Bool(name string, opts ...FieldOption) *Builder {
	return b.field(name, KindBool, opts)
}

// DateTime declares a date/time field
func (b *Builder) DateTime(name string, opts ...FieldOption) *Builder {
	return b.field(name, KindDateTime, opts)
}

// BelongsTo declares a to-one relationship carried by a foreign key column on
// this type. The column is declared if it is not already.
func (b *Builder) BelongsTo(name, target, foreignKey string) *Builder {
	if _, ok := b.entity.fieldIndex[foreignKey]; !ok {
		b.Int(foreignKey)
	}
	return b.relationship(&Relationship{
		Name:         name,
		Target:       target,
		Multiplicity: One,
		Linkage:      ForeignKey,
		ForeignKey:   foreignKey,
	})
}

// HasMany declares a to-many relationship carried by a foreign key column on
// the target's root table
func (b *Builder) HasMany(name, target, foreignKey string) *Builder {
	return b.relationship(&Relationship{
		Name:         name,
		Target:       target,
		Multiplicity: Many,
		Linkage:      ForeignKey,
		ForeignKey:   foreignKey,
	})
}

// ManyToMany declares a to-many relationship carried by an association table
// pairing sourceColumn (this type's key) with targetColumn (the target's key)
func (b *Builder) ManyToMany(name, target, table, sourceColumn, targetColumn string) *Builder {
	return b.relationship(&Relationship{
		Name:         name,
		Target:       target,
		Multiplicity: Many,
		Linkage:      Association,
		JoinTable:    table,
		SourceColumn: sourceColumn,
		TargetColumn: targetColumn,
	})
}

// Build returns the finished entity type
func (b *Builder) Build() (*EntityType, error) {
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	return b.entity, nil
}

func (b *Builder) field(name string, kind Kind, opts []FieldOption) *Builder {
	f := &Field{Name: name, Kind: kind, Nullable: true}
	for _, opt := range opts {
		opt(f)
	}
	b.addField(f)
	return b
}

func (b *Builder) addField(f *Field) {
	if _, exists := b.entity.fieldIndex[f.Name]; exists {
		b.errors = append(b.errors, fmt.Errorf("%s: duplicate field %s", b.entity.Name, f.Name))
		return
	}
	if f.Name == PrimaryKey {
		f.Nullable = false
	}
	f.Owner = b.entity
	b.entity.fields = append(b.entity.fields, f)
	b.entity.fieldIndex[f.Name] = f
}

func (b *Builder) relationship(r *Relationship) *Builder {
	if _, exists := b.entity.relIndex[r.Name]; exists {
		b.errors = append(b.errors, fmt.Errorf("%s: duplicate relationship %s", b.entity.Name, r.Name))
		return b
	}
	if _, clash := b.entity.fieldIndex[r.Name]; clash {
		b.errors = append(b.errors, fmt.Errorf("%s: relationship %s shadows a field", b.entity.Name, r.Name))
		return b
	}
	r.Owner = b.entity
	b.entity.relationships = append(b.entity.relationships, r)
	b.entity.relIndex[r.Name] = r
	return b
}
