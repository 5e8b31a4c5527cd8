package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is returned for structurally malformed query specs
	ErrInvalidSpec = errors.New("invalid query spec")
	// ErrAmbiguousJoin is returned when a join cannot bind a unique name
	ErrAmbiguousJoin = errors.New("ambiguous join")
	// ErrUnknownRelationship is returned for a join path naming no relationship
	ErrUnknownRelationship = errors.New("unknown relationship")
	// ErrNotJoined is returned when a spec references a binding that no join introduces
	ErrNotJoined = errors.New("binding is not joined")
	// ErrNoJoinPath is returned when no relationship links a bare join to the query
	ErrNoJoinPath = errors.New("no join path")
)

// AmbiguousJoinError reports a join whose target is already bound, or a
// bare join that several relationships could satisfy
type AmbiguousJoinError struct {
	Name   string
	Reason string
}

func (e *AmbiguousJoinError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("ambiguous join on %s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("ambiguous join on %s: already part of the query; join it through a prefixed alias", e.Name)
}

func (e *AmbiguousJoinError) Is(target error) bool {
	return target == ErrAmbiguousJoin
}

// UnknownRelationshipError reports a path segment that is not a relationship
type UnknownRelationshipError struct {
	Category     string
	Relationship string
}

func (e *UnknownRelationshipError) Error() string {
	return fmt.Sprintf("category %s has no relationship %q", e.Category, e.Relationship)
}

func (e *UnknownRelationshipError) Is(target error) bool {
	return target == ErrUnknownRelationship
}
