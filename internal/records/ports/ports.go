// Package ports defines the storage collaborators the record service needs
// from a tenant's data store. Memory and postgres stores both implement
// every interface here.
package ports

import (
	"context"

	"github.com/google/uuid"

	"orgtrakker/internal/records/models"
	tplmodels "orgtrakker/internal/template/models"
)

// RecordStore is keyed CRUD over records. Lookups ignore soft-deleted rows
// unless stated otherwise.
type RecordStore interface {
	// Create fails with sentinel.ErrAlreadyUsed when a unique index rejects
	// the business id or username.
	Create(ctx context.Context, record *models.Record) error
	Update(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error)
	FindByBusinessID(ctx context.Context, kind tplmodels.Kind, businessID string) (*models.Record, error)

	IDsByBusinessID(ctx context.Context, kind tplmodels.Kind, businessID string) ([]uuid.UUID, error)
	IDsByUsername(ctx context.Context, kind tplmodels.Kind, username string) ([]uuid.UUID, error)

	// ValidJobRoles returns the business ids of live job roles whose
	// template is live.
	ValidJobRoles(ctx context.Context) (map[string]struct{}, error)
	EmployeeExists(ctx context.Context, businessID string) (bool, error)
	DuplicateRanks(ctx context.Context) ([]*models.Record, error)
}

// IdentityStore holds employee login accounts.
type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	Update(ctx context.Context, identity *models.Identity) error
	FindByRecordID(ctx context.Context, recordID uuid.UUID) (*models.Identity, error)
	RecordIDsByUsername(ctx context.Context, username string) ([]uuid.UUID, error)
	SoftDeleteByRecord(ctx context.Context, recordID uuid.UUID) error
}

// FileStore holds file answer metadata.
type FileStore interface {
	Create(ctx context.Context, file *models.AnswerFile) error
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.AnswerFile, error)
	SoftDeleteByRecord(ctx context.Context, recordID uuid.UUID) error
}

// TemplateStore reads templates written by the authoring tooling. Save
// exists for seeding and tests.
type TemplateStore interface {
	Get(ctx context.Context, id string) (*tplmodels.Template, error)
	Save(ctx context.Context, tpl *tplmodels.Template) error
}

// Tx runs fn atomically. Stores called with the ctx passed to fn join the
// transaction; any error returned by fn rolls it back.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Handle is one tenant's data store.
type Handle interface {
	Records() RecordStore
	Identities() IdentityStore
	Files() FileStore
	Templates() TemplateStore
	Tx() Tx
	Close()
}
