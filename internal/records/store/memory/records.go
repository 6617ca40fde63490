package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"orgtrakker/internal/records/models"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/pkg/platform/sentinel"
)

type recordStore Store

func copyRecord(r *models.Record) *models.Record {
	c := *r
	c.Answers = r.Answers.Clone()
	if r.Rank != nil {
		rank := *r.Rank
		c.Rank = &rank
	}
	return &c
}

// checkUnique mirrors the partial unique indexes of the postgres store.
// Callers hold mu.
func (s *recordStore) checkUnique(r *models.Record) error {
	for _, other := range s.data.records {
		if other.ID == r.ID || other.Deleted || other.Kind != r.Kind {
			continue
		}
		if other.BusinessID == r.BusinessID {
			return fmt.Errorf("business id %q: %w", r.BusinessID, sentinel.ErrAlreadyUsed)
		}
		if r.Username != "" && strings.EqualFold(other.Username, r.Username) {
			return fmt.Errorf("username %q: %w", r.Username, sentinel.ErrAlreadyUsed)
		}
	}
	return nil
}

func (s *recordStore) Create(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.records[r.ID]; exists {
		return fmt.Errorf("record %s: %w", r.ID, sentinel.ErrAlreadyUsed)
	}
	if err := s.checkUnique(r); err != nil {
		return err
	}
	s.data.records[r.ID] = copyRecord(r)
	return nil
}

func (s *recordStore) Update(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.records[r.ID]; !exists {
		return sentinel.ErrNotFound
	}
	if !r.Deleted {
		if err := s.checkUnique(r); err != nil {
			return err
		}
	}
	s.data.records[r.ID] = copyRecord(r)
	return nil
}

func (s *recordStore) FindByID(_ context.Context, id uuid.UUID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data.records[id]
	if !ok || r.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(r), nil
}

func (s *recordStore) FindByBusinessID(_ context.Context, kind tplmodels.Kind, businessID string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data.records {
		if !r.Deleted && r.Kind == kind && r.BusinessID == businessID {
			return copyRecord(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *recordStore) ids(match func(*models.Record) bool) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for _, r := range s.data.records {
		if !r.Deleted && match(r) {
			out = append(out, r.ID)
		}
	}
	return out
}

func (s *recordStore) IDsByBusinessID(_ context.Context, kind tplmodels.Kind, businessID string) ([]uuid.UUID, error) {
	return s.ids(func(r *models.Record) bool {
		return r.Kind == kind && r.BusinessID == businessID
	}), nil
}

func (s *recordStore) IDsByUsername(_ context.Context, kind tplmodels.Kind, username string) ([]uuid.UUID, error) {
	return s.ids(func(r *models.Record) bool {
		return r.Kind == kind && r.Username != "" && strings.EqualFold(r.Username, username)
	}), nil
}

func (s *recordStore) ValidJobRoles(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{})
	for _, r := range s.data.records {
		if r.Deleted || r.Kind != tplmodels.KindJobRole {
			continue
		}
		if tpl, ok := s.data.templates[r.TemplateID]; ok && !tpl.Deleted {
			out[r.BusinessID] = struct{}{}
		}
	}
	return out, nil
}

func (s *recordStore) EmployeeExists(_ context.Context, businessID string) (bool, error) {
	return len(s.ids(func(r *models.Record) bool {
		return r.Kind == tplmodels.KindEmployee && r.BusinessID == businessID
	})) > 0, nil
}

func (s *recordStore) DuplicateRanks(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byRank := make(map[int][]*models.Record)
	for _, r := range s.data.records {
		if r.Deleted || r.Kind != tplmodels.KindRoleLevel || r.Rank == nil {
			continue
		}
		byRank[*r.Rank] = append(byRank[*r.Rank], r)
	}
	var out []*models.Record
	for _, group := range byRank {
		if len(group) < 2 {
			continue
		}
		for _, r := range group {
			out = append(out, copyRecord(r))
		}
	}
	return out, nil
}
