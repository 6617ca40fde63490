package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind names the record family a template shapes.
type Kind string

const (
	KindEmployee  Kind = "employee"
	KindJobRole   Kind = "job_role"
	KindRoleLevel Kind = "role_level"
	KindScorecard Kind = "scorecard"
)

// ParseKind accepts the path spellings used by the HTTP layer.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "employee", "employees":
		return KindEmployee, true
	case "job_role", "job_roles":
		return KindJobRole, true
	case "role_level", "role_levels":
		return KindRoleLevel, true
	case "scorecard", "scorecards":
		return KindScorecard, true
	}
	return "", false
}

// FieldType is the declared input type of a template field.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldTextarea  FieldType = "textarea"
	FieldNumber    FieldType = "number"
	FieldDate      FieldType = "date"
	FieldEmail     FieldType = "email"
	FieldFile      FieldType = "file"
	FieldJobRole   FieldType = "job_role"
	FieldSelect    FieldType = "select"
	FieldEnum      FieldType = "enum"
	FieldBoolean   FieldType = "boolean"
	FieldCheckbox  FieldType = "checkbox"
	FieldReportsTo FieldType = "reports_to"
)

// ID is a template identifier. Stored documents mix numeric ids
// (1762161266516) and string ids ("reports_to"); both decode to the same
// textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("template id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Field is one typed input. Label is the canonical label used for semantic
// role resolution; CustomLabel is display-only.
type Field struct {
	ID             ID        `json:"id"`
	Label          string    `json:"label"`
	CustomLabel    string    `json:"customize_field_label,omitempty"`
	Type           FieldType `json:"type"`
	Required       bool      `json:"is_required"`
	Options        []string  `json:"options,omitempty"`
	DynamicOptions bool      `json:"dynamicOptions,omitempty"`
	// Rule is an optional boolean expression over `value` and `answers`.
	Rule string `json:"rule,omitempty"`
}

// SubGroup is a repeated block of fields nested under a group.
type SubGroup struct {
	ID          ID      `json:"id,omitempty"`
	Label       string  `json:"label"`
	CustomLabel string  `json:"customize_group_label,omitempty"`
	Fields      []Field `json:"fields"`
}

// Group is an ordered section of a template. A nil Fields slice means the
// document had no "fields" array at all, which is malformed; [] is fine.
type Group struct {
	ID          ID         `json:"id"`
	Label       string     `json:"label"`
	CustomLabel string     `json:"customize_group_label,omitempty"`
	Fields      []Field    `json:"fields"`
	SubGroups   []SubGroup `json:"subGroups,omitempty"`
}

// Template is a tenant-defined form definition.
//
// Invariants (checked when the schema index is built):
//   - every group has an id and a fields array
//   - every field has an id
//   - flattened field ids are unique across the whole template
type Template struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	Groups    []Group   `json:"structure"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayLabel returns the customized label when set, else the canonical one.
func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.CustomLabel) != "" {
		return f.CustomLabel
	}
	return f.Label
}
