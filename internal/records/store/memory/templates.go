package memory

import (
	"context"
	"fmt"

	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/pkg/platform/sentinel"
)

type templateStore Store

func (s *templateStore) Get(_ context.Context, id string) (*tplmodels.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.data.templates[id]
	if !ok || tpl.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return tpl, nil
}

func (s *templateStore) Save(_ context.Context, tpl *tplmodels.Template) error {
	if tpl == nil || tpl.ID == "" {
		return fmt.Errorf("template id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.templates[tpl.ID] = tpl
	return nil
}
