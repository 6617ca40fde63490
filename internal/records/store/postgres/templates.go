package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	tplmodels "orgtrakker/internal/template/models"
)

// TemplateStore reads template documents. The structure column keeps the
// authoring tool's JSON as written.
type TemplateStore struct {
	store *Store
}

func (s *TemplateStore) Get(ctx context.Context, id string) (*tplmodels.Template, error) {
	var (
		tpl  tplmodels.Template
		kind string
		raw  []byte
	)
	err := s.store.querier(ctx).QueryRow(ctx, `
		SELECT id, kind, name, structure, deleted, created_at, updated_at
		FROM templates WHERE id = $1 AND NOT deleted`, id).Scan(
		&tpl.ID, &kind, &tpl.Name, &raw, &tpl.Deleted, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		return nil, mapReadError("find template", err)
	}
	tpl.Kind = tplmodels.Kind(kind)
	if err := json.Unmarshal(raw, &tpl.Groups); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", id, err)
	}
	return &tpl, nil
}

func (s *TemplateStore) Save(ctx context.Context, tpl *tplmodels.Template) error {
	structure, err := json.Marshal(tpl.Groups)
	if err != nil {
		return fmt.Errorf("encode template %s: %w", tpl.ID, err)
	}
	_, err = s.store.querier(ctx).Exec(ctx, `
		INSERT INTO templates (id, kind, name, structure, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			structure = EXCLUDED.structure,
			deleted = EXCLUDED.deleted,
			updated_at = now()`,
		tpl.ID, string(tpl.Kind), tpl.Name, string(structure), tpl.Deleted)
	if err != nil {
		return fmt.Errorf("save template %s: %w", tpl.ID, err)
	}
	return nil
}
