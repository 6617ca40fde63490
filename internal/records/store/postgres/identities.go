package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"orgtrakker/internal/records/models"
	"orgtrakker/pkg/platform/sentinel"
)

// IdentityStore persists employee login accounts.
type IdentityStore struct {
	store *Store
}

const identityColumns = `id, record_id, tenant_id, username, password_hash, first_name, middle_name, last_name,
	email, contact_number, birth_date, birth_place, sex, civil_status, nationality, blood_type,
	system_role, access_enabled, deleted, created_at, updated_at`

func identityArgs(i *models.Identity) []any {
	return []any{
		i.ID, i.RecordID, i.TenantID, i.Username, i.PasswordHash, i.FirstName, i.MiddleName, i.LastName,
		i.Email, i.ContactNumber, i.BirthDate, i.BirthPlace, i.Sex, i.CivilStatus, i.Nationality, i.BloodType,
		i.SystemRole, i.AccessEnabled, i.Deleted, i.CreatedAt, i.UpdatedAt,
	}
}

func (s *IdentityStore) Create(ctx context.Context, i *models.Identity) error {
	_, err := s.store.querier(ctx).Exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		identityArgs(i)...)
	if err != nil {
		return mapWriteError("insert identity", err)
	}
	return nil
}

// Update rewrites every column except the creation time.
func (s *IdentityStore) Update(ctx context.Context, i *models.Identity) error {
	tag, err := s.store.querier(ctx).Exec(ctx, `
		UPDATE identities SET
			record_id = $2, username = $3, password_hash = $4, first_name = $5,
			middle_name = $6, last_name = $7, email = $8, contact_number = $9, birth_date = $10,
			birth_place = $11, sex = $12, civil_status = $13, nationality = $14, blood_type = $15,
			system_role = $16, access_enabled = $17, deleted = $18, updated_at = $19
		WHERE id = $1`,
		i.ID, i.RecordID, i.Username, i.PasswordHash, i.FirstName,
		i.MiddleName, i.LastName, i.Email, i.ContactNumber, i.BirthDate,
		i.BirthPlace, i.Sex, i.CivilStatus, i.Nationality, i.BloodType,
		i.SystemRole, i.AccessEnabled, i.Deleted, i.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("update identity", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *IdentityStore) FindByRecordID(ctx context.Context, recordID uuid.UUID) (*models.Identity, error) {
	var i models.Identity
	err := s.store.querier(ctx).QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE record_id = $1 AND NOT deleted`, recordID).Scan(
		&i.ID, &i.RecordID, &i.TenantID, &i.Username, &i.PasswordHash, &i.FirstName, &i.MiddleName, &i.LastName,
		&i.Email, &i.ContactNumber, &i.BirthDate, &i.BirthPlace, &i.Sex, &i.CivilStatus, &i.Nationality, &i.BloodType,
		&i.SystemRole, &i.AccessEnabled, &i.Deleted, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, mapReadError("find identity", err)
	}
	return &i, nil
}

func (s *IdentityStore) RecordIDsByUsername(ctx context.Context, username string) ([]uuid.UUID, error) {
	rows, err := s.store.querier(ctx).Query(ctx,
		`SELECT record_id FROM identities WHERE lower(username) = lower($1) AND NOT deleted`, username)
	if err != nil {
		return nil, fmt.Errorf("identities by username: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("identities by username: %w", err)
	}
	return ids, nil
}

func (s *IdentityStore) SoftDeleteByRecord(ctx context.Context, recordID uuid.UUID) error {
	_, err := s.store.querier(ctx).Exec(ctx,
		`UPDATE identities SET deleted = TRUE, updated_at = now() WHERE record_id = $1 AND NOT deleted`, recordID)
	if err != nil {
		return fmt.Errorf("soft delete identity: %w", err)
	}
	return nil
}

// FileStore persists file answer metadata.
type FileStore struct {
	store *Store
}

func (s *FileStore) Create(ctx context.Context, f *models.AnswerFile) error {
	_, err := s.store.querier(ctx).Exec(ctx, `
		INSERT INTO answer_files (id, record_id, group_id, field_id, file_name, path, size_bytes, deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.RecordID, f.GroupID, f.FieldID, f.FileName, f.Path, f.SizeBytes, f.Deleted, f.CreatedAt)
	if err != nil {
		return mapWriteError("insert answer file", err)
	}
	return nil
}

func (s *FileStore) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.AnswerFile, error) {
	rows, err := s.store.querier(ctx).Query(ctx, `
		SELECT id, record_id, group_id, field_id, file_name, path, size_bytes, deleted, created_at
		FROM answer_files WHERE record_id = $1 AND NOT deleted ORDER BY created_at`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list answer files: %w", err)
	}
	files, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.AnswerFile, error) {
		var f models.AnswerFile
		err := row.Scan(&f.ID, &f.RecordID, &f.GroupID, &f.FieldID, &f.FileName, &f.Path, &f.SizeBytes, &f.Deleted, &f.CreatedAt)
		return &f, err
	})
	if err != nil {
		return nil, fmt.Errorf("list answer files: %w", err)
	}
	return files, nil
}

func (s *FileStore) SoftDeleteByRecord(ctx context.Context, recordID uuid.UUID) error {
	_, err := s.store.querier(ctx).Exec(ctx,
		`UPDATE answer_files SET deleted = TRUE WHERE record_id = $1 AND NOT deleted`, recordID)
	if err != nil {
		return fmt.Errorf("soft delete answer files: %w", err)
	}
	return nil
}
