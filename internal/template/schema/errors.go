package schema

import (
	"fmt"

	dErrors "orgtrakker/pkg/domain-errors"
)

// Error reports a malformed template. It is a configuration fault: callers
// surface it and stop, they do not retry.
type Error struct {
	TemplateID string
	GroupID    string
	FieldID    string
	Reason     string
}

func (e *Error) Error() string {
	loc := "template " + e.TemplateID
	if e.GroupID != "" {
		loc += " group " + e.GroupID
	}
	if e.FieldID != "" {
		loc += " field " + e.FieldID
	}
	return fmt.Sprintf("malformed %s: %s", loc, e.Reason)
}

// DomainCode maps schema faults onto the domain error taxonomy.
func (e *Error) DomainCode() dErrors.Code {
	return dErrors.CodeSchema
}
