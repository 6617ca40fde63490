package models

import (
	"time"

	"github.com/google/uuid"

	"orgtrakker/internal/answers"
	tplmodels "orgtrakker/internal/template/models"
)

// Record is one employee, job role, role level or scorecard.
//
// Invariants:
//   - ID is assigned once and never reused
//   - BusinessID is unique among live records of the same Kind in a tenant
//   - records are never physically removed; Deleted marks them gone
//   - Answers is always the nested, template-grouped shape
//
// Name is the denormalized display name (level name, scorecard title) and
// Rank orders role levels; both are derived from answers at write time.
type Record struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   string          `json:"tenant_id"`
	Kind       tplmodels.Kind  `json:"kind"`
	BusinessID string          `json:"business_id"`
	Username   string          `json:"username,omitempty"`
	TemplateID string          `json:"template_id"`
	Name       string          `json:"name,omitempty"`
	Rank       *int            `json:"rank,omitempty"`
	ReportsTo  string          `json:"reports_to,omitempty"`
	Answers    *answers.Nested `json:"answers"`
	Deleted    bool            `json:"deleted"`
	CreatedBy  string          `json:"created_by"`
	UpdatedBy  string          `json:"updated_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FlatAnswers returns the record's answers keyed by field id.
func (r *Record) FlatAnswers() *answers.Flat {
	if r == nil || r.Answers == nil {
		return answers.NewFlat()
	}
	return r.Answers.Flatten()
}

// MarkDeleted soft-deletes the record.
func (r *Record) MarkDeleted(actor string, now time.Time) {
	r.Deleted = true
	r.UpdatedBy = actor
	r.UpdatedAt = now
}
