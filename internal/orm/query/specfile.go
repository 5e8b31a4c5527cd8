package query

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// specFile is the YAML form of a Spec. Columns and joins are either a
// string or a list of strings in the tuple forms; a join may also be a
// mapping with path, target and type keys.
type specFile struct {
	Columns     []interface{}    `yaml:"columns"`
	Joins       []interface{}    `yaml:"joins"`
	Filters     [][]interface{}  `yaml:"filters"`
	Memberships []membershipFile `yaml:"memberships"`
	Outer       bool             `yaml:"outer"`
}

type membershipFile struct {
	Binding      string  `yaml:"binding"`
	Relationship string  `yaml:"relationship"`
	Keys         []int64 `yaml:"keys"`
}

type joinFile struct {
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
}

// ParseSpec decodes a YAML query description:
//
//	columns:
//	  - [Cage, id_local]
//	  - [Cage, Treatment, start_date]
//	joins:
//	  - [Cage_Treatment, Cage.treatments]
//	filters:
//	  - [Cage, location, room A, room B]
//	outer: true
func ParseSpec(data []byte) (Spec, error) {
	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	spec := Spec{Outer: f.Outer}
	for i, c := range f.Columns {
		parts, err := tuple(c)
		if err != nil {
			return Spec{}, fmt.Errorf("column %d: %w", i, err)
		}
		col, err := ColumnFromTuple(parts)
		if err != nil {
			return Spec{}, fmt.Errorf("column %d: %w", i, err)
		}
		spec.Columns = append(spec.Columns, col)
	}

	for i, j := range f.Joins {
		join, err := decodeJoin(j)
		if err != nil {
			return Spec{}, fmt.Errorf("join %d: %w", i, err)
		}
		spec.Joins = append(spec.Joins, join)
	}

	for i, list := range f.Filters {
		filter, err := FilterFromList(list)
		if err != nil {
			return Spec{}, fmt.Errorf("filter %d: %w", i, err)
		}
		if !filter.IsZero() {
			spec.Filters = append(spec.Filters, filter)
		}
	}

	for _, m := range f.Memberships {
		spec.Memberships = append(spec.Memberships, Member(m.Binding, m.Relationship, m.Keys...))
	}
	return spec, nil
}

func decodeJoin(v interface{}) (JoinSpec, error) {
	if m, ok := v.(map[string]interface{}); ok {
		out, err := yaml.Marshal(m)
		if err != nil {
			return JoinSpec{}, err
		}
		var jf joinFile
		if err := yaml.Unmarshal(out, &jf); err != nil {
			return JoinSpec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		if jf.Path == "" {
			return JoinSpec{}, fmt.Errorf("%w: join needs a path", ErrInvalidSpec)
		}
		join := JoinAs(jf.Target, jf.Path)
		switch strings.ToLower(jf.Type) {
		case "":
		case "left", "outer":
			join = join.Left()
		case "inner":
			join = join.Inner()
		default:
			return JoinSpec{}, fmt.Errorf("%w: unknown join type %q", ErrInvalidSpec, jf.Type)
		}
		return join, nil
	}

	parts, err := tuple(v)
	if err != nil {
		return JoinSpec{}, err
	}
	return JoinFromTuple(parts)
}

// tuple reads a string or a list of strings
func tuple(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case string:
		return []string{x}, nil
	case []interface{}:
		parts := make([]string, len(x))
		for i, p := range x {
			s, ok := p.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected a string, got %T", ErrInvalidSpec, p)
			}
			parts[i] = s
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("%w: expected a string or a list of strings, got %T", ErrInvalidSpec, v)
	}
}
