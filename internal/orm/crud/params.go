package crud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// CategoryKey names the entity type of a parameter tree
const CategoryKey = "CATEGORY"

// ParameterTree describes one record to create or the changes to apply
// to one. Values are scalars, identifier expressions, nested trees or
// lists of those.
type ParameterTree map[string]interface{}

// DecodeJSON decodes a JSON object, keeping numbers exact
func DecodeJSON(data []byte) (ParameterTree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree map[string]interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidParameter)
	}
	return ParameterTree(tree), nil
}

// DecodeYAML decodes a YAML mapping
func DecodeYAML(data []byte) (ParameterTree, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: expected a YAML mapping", ErrInvalidParameter)
	}
	return ParameterTree(tree), nil
}

// Category returns the CATEGORY of the tree
func (p ParameterTree) Category() (string, error) {
	v, ok := p[CategoryKey]
	if !ok {
		return "", ErrMissingCategory
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: CATEGORY must be a non-empty string, got %v", ErrInvalidParameter, v)
	}
	return s, nil
}

// Keys returns the field keys of the tree in sorted order, without CATEGORY
func (p ParameterTree) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k == CategoryKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asTree returns v as a parameter tree when it is a mapping
func asTree(v interface{}) (ParameterTree, bool) {
	switch m := v.(type) {
	case ParameterTree:
		return m, true
	case map[string]interface{}:
		return ParameterTree(m), true
	default:
		return nil, false
	}
}
