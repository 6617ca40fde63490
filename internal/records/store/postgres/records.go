package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/records/models"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/pkg/platform/sentinel"
)

// RecordStore persists records of every kind in one table.
type RecordStore struct {
	store *Store
}

const recordColumns = `id, tenant_id, kind, business_id, username, template_id, name, rank,
	reports_to, answers, deleted, created_by, updated_by, created_at, updated_at`

func scanRecord(row pgx.Row) (*models.Record, error) {
	var (
		r    models.Record
		kind string
		raw  []byte
	)
	if err := row.Scan(
		&r.ID, &r.TenantID, &kind, &r.BusinessID, &r.Username, &r.TemplateID, &r.Name, &r.Rank,
		&r.ReportsTo, &raw, &r.Deleted, &r.CreatedBy, &r.UpdatedBy, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.Kind = tplmodels.Kind(kind)
	r.Answers = answers.NewNested()
	if err := json.Unmarshal(raw, r.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of record %s: %w", r.ID, err)
	}
	return &r, nil
}

func encodeAnswers(r *models.Record) (string, error) {
	nested := r.Answers
	if nested == nil {
		nested = answers.NewNested()
	}
	data, err := json.Marshal(nested)
	if err != nil {
		return "", fmt.Errorf("encode answers of record %s: %w", r.ID, err)
	}
	return string(data), nil
}

func (s *RecordStore) Create(ctx context.Context, r *models.Record) error {
	data, err := encodeAnswers(r)
	if err != nil {
		return err
	}
	_, err = s.store.querier(ctx).Exec(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.TenantID, string(r.Kind), r.BusinessID, r.Username, r.TemplateID, r.Name, r.Rank,
		r.ReportsTo, data, r.Deleted, r.CreatedBy, r.UpdatedBy, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("insert record", err)
	}
	return nil
}

func (s *RecordStore) Update(ctx context.Context, r *models.Record) error {
	data, err := encodeAnswers(r)
	if err != nil {
		return err
	}
	tag, err := s.store.querier(ctx).Exec(ctx, `
		UPDATE records SET
			business_id = $2, username = $3, template_id = $4, name = $5, rank = $6,
			reports_to = $7, answers = $8, deleted = $9, updated_by = $10, updated_at = $11
		WHERE id = $1`,
		r.ID, r.BusinessID, r.Username, r.TemplateID, r.Name, r.Rank,
		r.ReportsTo, data, r.Deleted, r.UpdatedBy, r.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("update record", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RecordStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	r, err := scanRecord(s.store.querier(ctx).QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = $1 AND NOT deleted`, id))
	if err != nil {
		return nil, mapReadError("find record", err)
	}
	return r, nil
}

func (s *RecordStore) FindByBusinessID(ctx context.Context, kind tplmodels.Kind, businessID string) (*models.Record, error) {
	r, err := scanRecord(s.store.querier(ctx).QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE kind = $1 AND business_id = $2 AND NOT deleted`,
		string(kind), businessID))
	if err != nil {
		return nil, mapReadError("find record by business id", err)
	}
	return r, nil
}

func (s *RecordStore) collectIDs(ctx context.Context, op, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.store.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

func (s *RecordStore) IDsByBusinessID(ctx context.Context, kind tplmodels.Kind, businessID string) ([]uuid.UUID, error) {
	return s.collectIDs(ctx, "ids by business id",
		`SELECT id FROM records WHERE kind = $1 AND business_id = $2 AND NOT deleted`,
		string(kind), businessID)
}

func (s *RecordStore) IDsByUsername(ctx context.Context, kind tplmodels.Kind, username string) ([]uuid.UUID, error) {
	return s.collectIDs(ctx, "ids by username",
		`SELECT id FROM records WHERE kind = $1 AND username <> '' AND lower(username) = lower($2) AND NOT deleted`,
		string(kind), username)
}

func (s *RecordStore) ValidJobRoles(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.store.querier(ctx).Query(ctx,
		`SELECT r.business_id FROM records r
		JOIN templates t ON t.id = r.template_id AND NOT t.deleted
		WHERE r.kind = $1 AND NOT r.deleted`, string(tplmodels.KindJobRole))
	if err != nil {
		return nil, fmt.Errorf("list job roles: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list job roles: %w", err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *RecordStore) EmployeeExists(ctx context.Context, businessID string) (bool, error) {
	var exists bool
	err := s.store.querier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM records WHERE kind = $1 AND business_id = $2 AND NOT deleted)`,
		string(tplmodels.KindEmployee), businessID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("employee exists: %w", err)
	}
	return exists, nil
}

func (s *RecordStore) DuplicateRanks(ctx context.Context) ([]*models.Record, error) {
	rows, err := s.store.querier(ctx).Query(ctx, `
		SELECT `+recordColumns+` FROM records
		WHERE kind = $1 AND NOT deleted AND rank IN (
			SELECT rank FROM records
			WHERE kind = $1 AND NOT deleted AND rank IS NOT NULL
			GROUP BY rank HAVING count(*) > 1
		)
		ORDER BY rank, business_id`, string(tplmodels.KindRoleLevel))
	if err != nil {
		return nil, fmt.Errorf("duplicate ranks: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("duplicate ranks: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duplicate ranks: %w", err)
	}
	return out, nil
}
