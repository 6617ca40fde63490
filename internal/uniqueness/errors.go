package uniqueness

import (
	"fmt"

	dErrors "orgtrakker/pkg/domain-errors"
)

// ConflictKind distinguishes what collided.
type ConflictKind string

const (
	ConflictID       ConflictKind = "id"
	ConflictUsername ConflictKind = "username"
	// ConflictReference is a dangling reference: the referenced record does
	// not exist, as opposed to the value being malformed.
	ConflictReference ConflictKind = "reference"
)

// ConflictError rejects a write that collides with, or points at a missing,
// existing record.
type ConflictError struct {
	Kind  ConflictKind
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictID:
		return fmt.Sprintf("%s %q already exists", e.label("ID"), e.Value)
	case ConflictUsername:
		return fmt.Sprintf("username %q already exists", e.Value)
	case ConflictReference:
		return fmt.Sprintf("%s: referenced record %q not found", e.label("reference"), e.Value)
	default:
		return fmt.Sprintf("conflict on %q", e.Value)
	}
}

func (e *ConflictError) label(fallback string) string {
	if e.Field != "" {
		return e.Field
	}
	return fallback
}

// FieldLabel names the offending field for transport error bodies.
func (e *ConflictError) FieldLabel() string {
	return e.Field
}

func (e *ConflictError) DomainCode() dErrors.Code {
	return dErrors.CodeConflict
}
