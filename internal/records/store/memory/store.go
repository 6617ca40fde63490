// Package memory is an in-process tenant store for tests and single-node
// development. Transactions snapshot the whole store and restore it on
// rollback; they are serialized, so only one runs at a time.
package memory

import (
	"context"
	"maps"
	"sync"

	"orgtrakker/internal/records/models"
	"orgtrakker/internal/records/ports"
	tplmodels "orgtrakker/internal/template/models"

	"github.com/google/uuid"
)

// Store holds one tenant's data.
type Store struct {
	tenantID string

	txMu sync.Mutex
	mu   sync.RWMutex
	data state
}

type state struct {
	records    map[uuid.UUID]*models.Record
	identities map[uuid.UUID]*models.Identity
	files      map[uuid.UUID]*models.AnswerFile
	templates  map[string]*tplmodels.Template
}

func newState() state {
	return state{
		records:    make(map[uuid.UUID]*models.Record),
		identities: make(map[uuid.UUID]*models.Identity),
		files:      make(map[uuid.UUID]*models.AnswerFile),
		templates:  make(map[string]*tplmodels.Template),
	}
}

// clone copies the maps and their values. Stored values are never mutated
// in place, so copying pointers to fresh clones is enough.
func (s state) clone() state {
	return state{
		records:    maps.Clone(s.records),
		identities: maps.Clone(s.identities),
		files:      maps.Clone(s.files),
		templates:  maps.Clone(s.templates),
	}
}

// New returns an empty store for tenantID.
func New(tenantID string) *Store {
	return &Store{tenantID: tenantID, data: newState()}
}

var _ ports.Handle = (*Store)(nil)

func (s *Store) Records() ports.RecordStore { return (*recordStore)(s) }
func (s *Store) Identities() ports.IdentityStore { return (*identityStore)(s) }
func (s *Store) Files() ports.FileStore { return (*fileStore)(s) }
func (s *Store) Templates() ports.TemplateStore { return (*templateStore)(s) }
func (s *Store) Tx() ports.Tx { return s }
func (s *Store) Close() {}

type inTxKey struct{}

// RunInTx executes fn under the store's transaction lock. Nested calls join
// the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(inTxKey{}).(*Store); owner == s {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, inTxKey{}, s)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}
