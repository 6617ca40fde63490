package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	dErrors "orgtrakker/pkg/domain-errors"

	"orgtrakker/internal/template/models"
	"orgtrakker/internal/template/schema"
	"orgtrakker/internal/uniqueness"
)

// validator checks one non-blank value and returns the value to store.
type validator func(r *run, meta *schema.FieldMeta, v any) (any, error)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)+$`)
	phonePattern = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)
)

func roleValidators() map[schema.Role]validator {
	return map[schema.Role]validator{
		schema.RoleEmail:       validateEmail,
		schema.RolePhone:       validatePhone,
		schema.RolePassword:    validatePassword,
		schema.RoleDateOfBirth: validateDateOfBirth,
		schema.RoleStartDate:   validateStartDate,
		schema.RoleReportsTo:   validateReportsTo,
		schema.RoleJobRole:     validateJobRole,
		schema.RoleRank:        validateWholeNumber,
		schema.RoleBusinessID:  trimmed,
		schema.RoleUsername:    trimmed,
	}
}

// typeValidators apply to fields without a semantic role.
func typeValidators() map[string]validator {
	return map[string]validator{
		string(models.FieldDate):   validateDate,
		string(models.FieldNumber): validateNumber,
		string(models.FieldEmail):  validateEmail,
	}
}

func fail(meta *schema.FieldMeta, rule Rule, format string, args ...any) error {
	return &Error{
		FieldID: meta.FieldID,
		Field:   meta.DisplayLabel(),
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func trimmed(_ *run, _ *schema.FieldMeta, v any) (any, error) {
	return asString(v), nil
}

func validateEmail(_ *run, meta *schema.FieldMeta, v any) (any, error) {
	s := asString(v)
	if len(s) > 254 || !emailPattern.MatchString(s) {
		return nil, fail(meta, RuleEmail, "%s must be a valid email address", meta.DisplayLabel())
	}
	return s, nil
}

func validatePhone(_ *run, meta *schema.FieldMeta, v any) (any, error) {
	s := asString(v)
	if !phonePattern.MatchString(s) {
		return nil, fail(meta, RulePhone, "%s must be a valid phone number", meta.DisplayLabel())
	}
	return s, nil
}

func validateDate(_ *run, meta *schema.FieldMeta, v any) (any, error) {
	s := asString(v)
	if _, err := parseDate(s); err != nil {
		return nil, fail(meta, RuleDate, "%s must be a valid date", meta.DisplayLabel())
	}
	return s, nil
}

func validateDateOfBirth(r *run, meta *schema.FieldMeta, v any) (any, error) {
	s := asString(v)
	dob, err := parseDate(s)
	if err != nil {
		return nil, fail(meta, RuleDate, "%s must be a valid date", meta.DisplayLabel())
	}
	age := fullYears(dob, r.opts.Now)
	if age < r.opts.Config.MinAge {
		return nil, fail(meta, RuleMinAge, "%s: employee must be at least %d years old", meta.DisplayLabel(), r.opts.Config.MinAge)
	}
	if age > r.opts.Config.MaxAge {
		return nil, fail(meta, RuleMaxAge, "%s seems invalid", meta.DisplayLabel())
	}
	return s, nil
}

func validateStartDate(r *run, meta *schema.FieldMeta, v any) (any, error) {
	s := asString(v)
	start, err := parseDate(s)
	if err != nil {
		return nil, fail(meta, RuleDate, "%s must be a valid date", meta.DisplayLabel())
	}
	if start.After(dateOnly(r.opts.Now)) {
		return nil, fail(meta, RuleFutureDate, "%s cannot be in the future", meta.DisplayLabel())
	}
	for _, dobMeta := range r.idx.ByRole(schema.RoleDateOfBirth) {
		raw, ok := r.flat.Get(dobMeta.FieldID)
		if !ok || isBlank(raw) {
			continue
		}
		dob, err := parseDate(asString(raw))
		if err != nil {
			// the date of birth rule reports this one
			continue
		}
		if fullYears(dob, start) < r.opts.Config.MinStartAge {
			return nil, fail(meta, RuleStartAfter, "%s must be at least %d years after %s",
				meta.DisplayLabel(), r.opts.Config.MinStartAge, dobMeta.DisplayLabel())
		}
	}
	return s, nil
}

func validateReportsTo(r *run, meta *schema.FieldMeta, v any) (any, error) {
	s := asString(v)
	if r.opts.References == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "reference checker not configured")
	}
	ok, err := r.opts.References.EmployeeExists(r.ctx, s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "check reports-to reference")
	}
	if !ok {
		return nil, &uniqueness.ConflictError{
			Kind:  uniqueness.ConflictReference,
			Field: meta.DisplayLabel(),
			Value: s,
		}
	}
	return s, nil
}

func validateJobRole(r *run, meta *schema.FieldMeta, v any) (any, error) {
	s := asString(v)
	if r.jobRoles == nil {
		if r.opts.References == nil {
			return nil, dErrors.New(dErrors.CodeInternal, "reference checker not configured")
		}
		roles, err := r.opts.References.ValidJobRoles(r.ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load job roles")
		}
		if roles == nil {
			roles = map[string]struct{}{}
		}
		r.jobRoles = roles
	}
	if _, ok := r.jobRoles[s]; !ok {
		return nil, fail(meta, RuleJobRole, "%s: invalid job role selected: %s", meta.DisplayLabel(), s)
	}
	return s, nil
}

func validateNumber(_ *run, meta *schema.FieldMeta, v any) (any, error) {
	switch t := v.(type) {
	case float64, int, int64:
		return t, nil
	}
	s := asString(v)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return nil, fail(meta, RuleNumber, "%s must be a number", meta.DisplayLabel())
	}
	return s, nil
}

func validateWholeNumber(_ *run, meta *schema.FieldMeta, v any) (any, error) {
	n, ok := WholeNumber(v)
	if !ok {
		return nil, fail(meta, RuleNumber, "%s must be a whole number", meta.DisplayLabel())
	}
	return float64(n), nil
}

// WholeNumber reads an integral answer given as a JSON number or a string.
func WholeNumber(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}
