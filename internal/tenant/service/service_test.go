package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"orgtrakker/internal/records/ports"
	"orgtrakker/internal/records/store/memory"
	"orgtrakker/internal/tenant/models"
	"orgtrakker/internal/tenant/store"
	dErrors "orgtrakker/pkg/domain-errors"
	"orgtrakker/pkg/platform/sentinel"
)

type closeTrackingHandle struct {
	*memory.Store
	closed atomic.Bool
}

func (h *closeTrackingHandle) Close() { h.closed.Store(true) }

type countingFactory struct {
	opens   atomic.Int32
	release chan struct{}
	fail    error
	mu      sync.Mutex
	handles []*closeTrackingHandle
}

func (f *countingFactory) Open(_ context.Context, t models.Tenant) (ports.Handle, error) {
	f.opens.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.fail != nil {
		return nil, f.fail
	}
	h := &closeTrackingHandle{Store: memory.New(t.ID)}
	f.mu.Lock()
	f.handles = append(f.handles, h)
	f.mu.Unlock()
	return h, nil
}

type ResolverSuite struct {
	suite.Suite
	registry *store.Registry
	ctx      context.Context
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	reg, err := store.NewRegistry(
		models.Tenant{ID: "acme", Driver: models.DriverMemory},
		models.Tenant{ID: "globex", Driver: models.DriverMemory},
		models.Tenant{ID: "dormant", Driver: models.DriverMemory, Disabled: true},
	)
	s.Require().NoError(err)
	s.registry = reg
	s.ctx = context.Background()
}

func (s *ResolverSuite) TestConcurrentFirstResolveOpensOnce() {
	factory := &countingFactory{release: make(chan struct{})}
	resolver := New(s.registry, factory)

	const callers = 32
	var wg sync.WaitGroup
	results := make([]ports.Handle, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := resolver.Resolve(s.ctx, "acme")
			s.NoError(err)
			results[i] = h
		}()
	}
	close(factory.release)
	wg.Wait()

	s.Equal(int32(1), factory.opens.Load())
	for _, h := range results {
		s.Same(results[0], h)
	}
}

func (s *ResolverSuite) TestTenantsGetDistinctHandles() {
	resolver := New(s.registry, &countingFactory{})

	acme, err := resolver.Resolve(s.ctx, "acme")
	s.Require().NoError(err)
	globex, err := resolver.Resolve(s.ctx, "globex")
	s.Require().NoError(err)
	s.NotSame(acme, globex)
}

func (s *ResolverSuite) TestUnknownTenant() {
	factory := &countingFactory{}
	resolver := New(s.registry, factory)

	for _, id := range []string{"initech", "dormant"} {
		_, err := resolver.Resolve(s.ctx, id)
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrTenantNotFound)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.Equal(dErrors.CodeTenantNotFound, dErrors.CodeOf(err))
	}
	s.Zero(factory.opens.Load())
}

func (s *ResolverSuite) TestOpenFailureIsRetried() {
	factory := &countingFactory{fail: errors.New("connection refused")}
	resolver := New(s.registry, factory)

	_, err := resolver.Resolve(s.ctx, "acme")
	s.Require().Error(err)
	s.Equal(dErrors.CodeStorage, dErrors.CodeOf(err))

	factory.fail = nil
	_, err = resolver.Resolve(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal(int32(2), factory.opens.Load())
}

func (s *ResolverSuite) TestCloseReleasesHandles() {
	factory := &countingFactory{}
	resolver := New(s.registry, factory)
	_, err := resolver.Resolve(s.ctx, "acme")
	s.Require().NoError(err)
	_, err = resolver.Resolve(s.ctx, "globex")
	s.Require().NoError(err)

	resolver.Close()

	s.Require().Len(factory.handles, 2)
	for _, h := range factory.handles {
		s.True(h.closed.Load())
	}
	_, err = resolver.Resolve(s.ctx, "acme")
	s.Error(err)
}

func (s *ResolverSuite) TestStoreFactorySeedsMemoryTemplates() {
	path := filepath.Join(s.T().TempDir(), "templates.json")
	s.Require().NoError(os.WriteFile(path, []byte(`[
		{"id": "tpl-emp", "kind": "employee", "name": "Employee",
		 "structure": [{"id": 1762161266516, "label": "Basic", "fields": [
			{"id": "f1", "label": "First Name", "type": "text", "is_required": true}
		 ]}]}
	]`), 0o600))

	handle, err := NewStoreFactory().Open(s.ctx, models.Tenant{ID: "sandbox", Driver: models.DriverMemory, TemplatesFile: path})
	s.Require().NoError(err)
	defer handle.Close()

	tpl, err := handle.Templates().Get(s.ctx, "tpl-emp")
	s.Require().NoError(err)
	s.Equal("1762161266516", tpl.Groups[0].ID.String())
	s.True(tpl.Groups[0].Fields[0].Required)
}
