package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"orgtrakker/internal/records/models"
	"orgtrakker/pkg/platform/sentinel"
)

type identityStore Store

func (s *identityStore) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.data.identities {
		if !other.Deleted && strings.EqualFold(other.Username, identity.Username) {
			return fmt.Errorf("username %q: %w", identity.Username, sentinel.ErrAlreadyUsed)
		}
	}
	c := *identity
	s.data.identities[identity.ID] = &c
	return nil
}

func (s *identityStore) Update(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.identities[identity.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, other := range s.data.identities {
		if other.ID != identity.ID && !other.Deleted && strings.EqualFold(other.Username, identity.Username) {
			return fmt.Errorf("username %q: %w", identity.Username, sentinel.ErrAlreadyUsed)
		}
	}
	c := *identity
	s.data.identities[identity.ID] = &c
	return nil
}

func (s *identityStore) FindByRecordID(_ context.Context, recordID uuid.UUID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.data.identities {
		if !identity.Deleted && identity.RecordID == recordID {
			c := *identity
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *identityStore) RecordIDsByUsername(_ context.Context, username string) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for _, identity := range s.data.identities {
		if !identity.Deleted && strings.EqualFold(identity.Username, username) {
			out = append(out, identity.RecordID)
		}
	}
	return out, nil
}

func (s *identityStore) SoftDeleteByRecord(_ context.Context, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, identity := range s.data.identities {
		if identity.RecordID == recordID && !identity.Deleted {
			c := *identity
			c.Deleted = true
			s.data.identities[id] = &c
		}
	}
	return nil
}

type fileStore Store

func (s *fileStore) Create(_ context.Context, file *models.AnswerFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *file
	s.data.files[file.ID] = &c
	return nil
}

func (s *fileStore) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*models.AnswerFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AnswerFile
	for _, f := range s.data.files {
		if !f.Deleted && f.RecordID == recordID {
			c := *f
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *fileStore) SoftDeleteByRecord(_ context.Context, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.data.files {
		if f.RecordID == recordID && !f.Deleted {
			c := *f
			c.Deleted = true
			s.data.files[id] = &c
		}
	}
	return nil
}
