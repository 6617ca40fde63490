package schema

import (
	"strings"

	"orgtrakker/internal/template/models"
)

// Role is the semantic meaning of a field, resolved once from its canonical
// label, type and id. Customized labels never influence it.
type Role int

const (
	RoleNone Role = iota
	RoleBusinessID
	RoleUsername
	RoleFirstName
	RoleMiddleName
	RoleLastName
	RoleEmail
	RolePhone
	RolePassword
	RoleDateOfBirth
	RoleStartDate
	RoleReportsTo
	RoleJobRole
	RoleLevel
	RoleRank
	RoleFile
	RoleBirthPlace
	RoleSex
	RoleCivilStatus
	RoleNationality
	RoleBloodType
	RoleSystemRole
	RoleSystemAccess
)

var roleNames = map[Role]string{
	RoleNone:         "none",
	RoleBusinessID:   "business_id",
	RoleUsername:     "username",
	RoleFirstName:    "first_name",
	RoleMiddleName:   "middle_name",
	RoleLastName:     "last_name",
	RoleEmail:        "email",
	RolePhone:        "phone",
	RolePassword:     "password",
	RoleDateOfBirth:  "date_of_birth",
	RoleStartDate:    "start_date",
	RoleReportsTo:    "reports_to",
	RoleJobRole:      "job_role",
	RoleLevel:        "level",
	RoleRank:         "rank",
	RoleFile:         "file",
	RoleBirthPlace:   "birth_place",
	RoleSex:          "sex",
	RoleCivilStatus:  "civil_status",
	RoleNationality:  "nationality",
	RoleBloodType:    "blood_type",
	RoleSystemRole:   "system_role",
	RoleSystemAccess: "system_access",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "unknown"
}

// labelRoles maps canonical labels to roles. Matching is exact.
var labelRoles = map[string]Role{
	"Employee ID":           RoleBusinessID,
	"Employee Code":         RoleBusinessID,
	"Code":                  RoleBusinessID,
	"Scorecard Code":        RoleBusinessID,
	"Job Role Code":         RoleBusinessID,
	"Username":              RoleUsername,
	"First Name":            RoleFirstName,
	"Middle Name":           RoleMiddleName,
	"Last Name":             RoleLastName,
	"Email Address":         RoleEmail,
	"Phone Number":          RolePhone,
	"Contact Number":        RolePhone,
	"Password":              RolePassword,
	"Date of Birth":         RoleDateOfBirth,
	"Start Date":            RoleStartDate,
	"Reports To":            RoleReportsTo,
	"Level":                 RoleLevel,
	"Rank/Order":            RoleRank,
	"Rank":                  RoleRank,
	"Birth Place":           RoleBirthPlace,
	"Sex":                   RoleSex,
	"Civil Status":          RoleCivilStatus,
	"Nationality":           RoleNationality,
	"Blood Type":            RoleBloodType,
	"Role":                  RoleSystemRole,
	"User Role":             RoleSystemRole,
	"System Role":           RoleSystemRole,
	"System Access Enabled": RoleSystemAccess,
}

// ReportsToFieldID is the reserved field id for reporting-line answers.
const ReportsToFieldID = "reports_to"

func resolveRole(f models.Field) Role {
	switch f.Type {
	case models.FieldFile:
		return RoleFile
	case models.FieldJobRole:
		return RoleJobRole
	case models.FieldReportsTo:
		return RoleReportsTo
	}
	if string(f.ID) == ReportsToFieldID {
		return RoleReportsTo
	}
	label := strings.TrimSpace(f.Label)
	if label == "Job Role" && f.DynamicOptions {
		return RoleJobRole
	}
	if r, ok := labelRoles[label]; ok {
		return r
	}
	return RoleNone
}
