package validation

import (
	dErrors "orgtrakker/pkg/domain-errors"
)

// Rule names the check a value failed.
type Rule string

const (
	RuleRequired     Rule = "required"
	RuleUnknownField Rule = "unknown_field"
	RuleEmail        Rule = "email"
	RulePhone        Rule = "phone"
	RulePassword     Rule = "password"
	RuleDate         Rule = "date"
	RuleMinAge       Rule = "min_age"
	RuleMaxAge       Rule = "max_age"
	RuleFutureDate   Rule = "future_date"
	RuleStartAfter   Rule = "start_after_birth"
	RuleJobRole      Rule = "job_role"
	RuleRequiredFile Rule = "required_file"
	RuleFileType     Rule = "file_type"
	RuleFileSize     Rule = "file_size"
	RuleNumber       Rule = "number"
	RuleCustom       Rule = "custom_rule"
)

// Error is a user-correctable rejection. Field is the display label.
type Error struct {
	FieldID string
	Field   string
	Rule    Rule
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) FieldLabel() string {
	return e.Field
}

func (e *Error) DomainCode() dErrors.Code {
	return dErrors.CodeValidation
}
