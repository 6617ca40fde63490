package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the login account linked to an employee record.
type Identity struct {
	ID            uuid.UUID `json:"id"`
	RecordID      uuid.UUID `json:"record_id"`
	TenantID      string    `json:"tenant_id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"first_name"`
	MiddleName    string    `json:"middle_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email_address"`
	ContactNumber string    `json:"contact_number"`
	BirthDate     string    `json:"birth_date"`
	BirthPlace    string    `json:"birth_place"`
	Sex           string    `json:"sex"`
	CivilStatus   string    `json:"civil_status"`
	Nationality   string    `json:"nationality"`
	BloodType     string    `json:"blood_type"`
	SystemRole    string    `json:"system_user_role"`
	AccessEnabled bool      `json:"system_access_enabled"`
	Deleted       bool      `json:"deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Defaults applied when the template does not collect a profile attribute.
const (
	NotSpecified      = "Not Specified"
	DefaultSystemRole = "employee"
	DefaultBirthDate  = "1900-01-01"
)

// ApplyDefaults fills unset profile attributes.
func (i *Identity) ApplyDefaults() {
	for _, p := range []*string{&i.Sex, &i.CivilStatus, &i.Nationality, &i.BloodType, &i.BirthPlace, &i.ContactNumber} {
		if *p == "" {
			*p = NotSpecified
		}
	}
	if i.SystemRole == "" {
		i.SystemRole = DefaultSystemRole
	}
	if i.BirthDate == "" {
		i.BirthDate = DefaultBirthDate
	}
}
