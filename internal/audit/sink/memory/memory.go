// Package memory is an in-process audit sink for tests and development.
package memory

import (
	"context"
	"sync"

	"orgtrakker/internal/audit"
)

type Sink struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Sink {
	return &Sink{}
}

func (s *Sink) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended, oldest first.
func (s *Sink) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...)
}

// ByEntity returns the events for one entity, oldest first.
func (s *Sink) ByEntity(entityType, entityID string) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
