package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCategory is returned when a name is absent from the registry
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownField is returned when a category has no field or relationship of that name
	ErrUnknownField = errors.New("unknown field")

	// ErrMalformedValue is returned when a value cannot be coerced to a field kind
	ErrMalformedValue = errors.New("malformed value")
)

// UnknownCategoryError names the category that failed to resolve
type UnknownCategoryError struct {
	Name string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Name)
}

// Is matches ErrUnknownCategory
func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

// UnknownFieldError names the missing field and its category
type UnknownFieldError struct {
	Category string
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("category %q has no field or relationship %q", e.Category, e.Field)
}

// Is matches ErrUnknownField
func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}
