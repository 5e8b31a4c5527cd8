package identifier

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedExpression is returned for input that does not follow the grammar
	ErrMalformedExpression = errors.New("malformed identifier expression")
	// ErrNotFound is returned when an expression matches no record
	ErrNotFound = errors.New("no matching record")
)

// MalformedExpressionError reports an expression that cannot be parsed,
// encoded or evaluated
type MalformedExpressionError struct {
	Input  string
	Reason string
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed identifier expression %q: %s", e.Input, e.Reason)
}

func (e *MalformedExpressionError) Is(target error) bool {
	return target == ErrMalformedExpression
}

// NotFoundError reports the last condition of an expression that matched nothing
type NotFoundError struct {
	Category string
	Field    string
	Value    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s entry found where %s is %q", e.Category, e.Field, e.Value)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
