package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/records/models"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/internal/template/schema"
	"orgtrakker/internal/validation"
)

var businessIDPrefixes = map[tplmodels.Kind]string{
	tplmodels.KindEmployee:  "EMP",
	tplmodels.KindJobRole:   "JR",
	tplmodels.KindRoleLevel: "LVL",
	tplmodels.KindScorecard: "SC",
}

var unnamed = map[tplmodels.Kind]string{
	tplmodels.KindEmployee:  "Unnamed Employee",
	tplmodels.KindJobRole:   "Unnamed Job Role",
	tplmodels.KindRoleLevel: "Unnamed Role Level",
	tplmodels.KindScorecard: "Unnamed Scorecard",
}

// GenerateBusinessID returns PREFIX-YYYYMMDD-XXXXXXXX for kind.
func GenerateBusinessID(kind tplmodels.Kind, now time.Time) string {
	prefix, ok := businessIDPrefixes[kind]
	if !ok {
		prefix = "REC"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}

func kindLabel(kind tplmodels.Kind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

// entityLabel is the audit label: the record's display name or a
// per-kind placeholder.
func entityLabel(kind tplmodels.Kind, name string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if l, ok := unnamed[kind]; ok {
		return l
	}
	return "Unnamed Record"
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return strings.EqualFold(s, "yes")
	}
	return false
}

// roleValue returns the first non-blank answer among fields with role r.
func roleValue(idx *schema.Index, values *answers.Flat, r schema.Role) (string, bool) {
	for _, meta := range idx.ByRole(r) {
		if v, ok := values.Get(meta.FieldID); ok {
			if s := text(v); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// businessID prefers the template's business-id answer, then the id the
// caller supplied, then a generated one.
func businessID(idx *schema.Index, values *answers.Flat, requested string, kind tplmodels.Kind, now time.Time) string {
	if v, ok := roleValue(idx, values, schema.RoleBusinessID); ok {
		return v
	}
	if s := strings.TrimSpace(requested); s != "" {
		return s
	}
	return GenerateBusinessID(kind, now)
}

// displayName derives the record's name from its answers; "" when nothing
// usable was answered.
func displayName(kind tplmodels.Kind, idx *schema.Index, values *answers.Flat) string {
	switch kind {
	case tplmodels.KindEmployee:
		first, _ := roleValue(idx, values, schema.RoleFirstName)
		last, _ := roleValue(idx, values, schema.RoleLastName)
		return strings.TrimSpace(first + " " + last)
	case tplmodels.KindRoleLevel:
		name, _ := roleValue(idx, values, schema.RoleLevel)
		return name
	}
	for _, meta := range idx.Fields() {
		switch meta.Role {
		case schema.RoleFile, schema.RolePassword, schema.RoleBusinessID:
			continue
		}
		if v, ok := values.Get(meta.FieldID); ok {
			if s := text(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// applyDerived copies answer-derived columns onto r.
func applyDerived(r *models.Record, idx *schema.Index, values *answers.Flat) {
	r.Name = displayName(r.Kind, idx, values)
	r.ReportsTo, _ = roleValue(idx, values, schema.RoleReportsTo)
	r.Rank = nil
	if r.Kind != tplmodels.KindRoleLevel {
		return
	}
	for _, meta := range idx.ByRole(schema.RoleRank) {
		if v, ok := values.Get(meta.FieldID); ok {
			if n, ok := validation.WholeNumber(v); ok {
				r.Rank = &n
				return
			}
		}
	}
}

// loginName is the identity username: the Username answer, else the
// business id.
func loginName(idx *schema.Index, values *answers.Flat, bid string) string {
	if v, ok := roleValue(idx, values, schema.RoleUsername); ok {
		return v
	}
	return bid
}

// requireEmployeeFields enforces the account fields an employee needs when
// the template collects them, regardless of their required flag.
func requireEmployeeFields(idx *schema.Index, values *answers.Flat) error {
	for _, r := range []schema.Role{schema.RoleUsername, schema.RoleFirstName, schema.RoleLastName, schema.RolePassword} {
		meta, ok := idx.FirstByRole(r)
		if !ok {
			continue
		}
		if _, answered := roleValue(idx, values, r); answered {
			continue
		}
		return &validation.Error{
			FieldID: meta.FieldID,
			Field:   meta.DisplayLabel(),
			Rule:    validation.RuleRequired,
			Message: meta.DisplayLabel() + " is required",
		}
	}
	return nil
}

// identityFrom builds the login account for an employee from its answers.
// Attributes the answers leave blank are taken from prev when given, else
// defaulted.
func identityFrom(idx *schema.Index, values *answers.Flat, prev *models.Identity) *models.Identity {
	get := func(r schema.Role) string {
		v, _ := roleValue(idx, values, r)
		return v
	}
	next := &models.Identity{
		FirstName:     get(schema.RoleFirstName),
		MiddleName:    get(schema.RoleMiddleName),
		LastName:      get(schema.RoleLastName),
		Email:         get(schema.RoleEmail),
		ContactNumber: get(schema.RolePhone),
		BirthDate:     get(schema.RoleDateOfBirth),
		BirthPlace:    get(schema.RoleBirthPlace),
		Sex:           get(schema.RoleSex),
		CivilStatus:   get(schema.RoleCivilStatus),
		Nationality:   get(schema.RoleNationality),
		BloodType:     get(schema.RoleBloodType),
		SystemRole:    get(schema.RoleSystemRole),
		PasswordHash:  get(schema.RolePassword),
	}
	access, hasAccess := idx.FirstByRole(schema.RoleSystemAccess)
	if hasAccess {
		v, _ := values.Get(access.FieldID)
		next.AccessEnabled = truthy(v)
	}
	if prev != nil {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
		keep := func(dst *string, src string) {
			if *dst == "" {
				*dst = src
			}
		}
		keep(&next.FirstName, prev.FirstName)
		keep(&next.MiddleName, prev.MiddleName)
		keep(&next.LastName, prev.LastName)
		keep(&next.Email, prev.Email)
		keep(&next.ContactNumber, prev.ContactNumber)
		keep(&next.BirthDate, prev.BirthDate)
		keep(&next.BirthPlace, prev.BirthPlace)
		keep(&next.Sex, prev.Sex)
		keep(&next.CivilStatus, prev.CivilStatus)
		keep(&next.Nationality, prev.Nationality)
		keep(&next.BloodType, prev.BloodType)
		keep(&next.SystemRole, prev.SystemRole)
		keep(&next.PasswordHash, prev.PasswordHash)
		if !hasAccess {
			next.AccessEnabled = prev.AccessEnabled
		}
	}
	next.ApplyDefaults()
	return next
}

// withoutSensitive returns a copy of n with password answers removed.
func withoutSensitive(idx *schema.Index, n *answers.Nested) *answers.Nested {
	out := n.Clone()
	for _, meta := range idx.Fields() {
		if !idx.IsSensitive(meta.FieldID) {
			continue
		}
		if g, ok := out.Lookup(meta.GroupID); ok {
			g.Delete(meta.FieldID)
		}
	}
	return out
}
