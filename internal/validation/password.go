package validation

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "orgtrakker/pkg/domain-errors"

	"orgtrakker/internal/template/schema"
)

const (
	minPasswordLength = 8
	passwordSymbols   = "@$!%*?&"
)

// PasswordPolicyOK reports whether pw has at least eight characters drawn
// only from letters, digits and @$!%*?&, with at least one of each class.
func PasswordPolicyOK(pw string) bool {
	if len(pw) < minPasswordLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, c := range pw {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, c):
			symbol = true
		default:
			return false
		}
	}
	return upper && lower && digit && symbol
}

// validatePassword never returns the plaintext: the stored answer is the hash.
func validatePassword(r *run, meta *schema.FieldMeta, v any) (any, error) {
	pw, _ := v.(string)
	if !PasswordPolicyOK(pw) {
		return nil, fail(meta, RulePassword,
			"%s must be at least 8 characters, including uppercase, lowercase, number, and special character",
			meta.DisplayLabel())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), r.opts.Config.BcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	r.passwordChanged = true
	return string(hash), nil
}
