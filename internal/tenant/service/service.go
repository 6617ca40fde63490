// Package service resolves tenant ids to their data-store handles.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"orgtrakker/internal/records/ports"
	"orgtrakker/internal/tenant/metrics"
	"orgtrakker/internal/tenant/models"
	dErrors "orgtrakker/pkg/domain-errors"
)

// Registry answers which tenants exist.
type Registry interface {
	Lookup(id string) (models.Tenant, bool)
}

// HandleFactory opens a tenant's store. It is called at most once per
// tenant for the life of a Resolver.
type HandleFactory interface {
	Open(ctx context.Context, tenant models.Tenant) (ports.Handle, error)
}

// Resolver caches one handle per tenant. Concurrent first resolutions of
// the same tenant share a single construction.
type Resolver struct {
	registry Registry
	factory  HandleFactory
	handles  sync.Map // tenant id -> ports.Handle
	group    singleflight.Group
	closed   atomic.Bool
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New constructs a Resolver.
func New(registry Registry, factory HandleFactory, opts ...Option) *Resolver {
	r := &Resolver{registry: registry, factory: factory, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the store handle for tenantID. Unknown or disabled
// tenants fail with models.ErrTenantNotFound; a store that cannot be opened
// fails with a storage error and is retried on the next call.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (ports.Handle, error) {
	if r.metrics != nil {
		defer r.metrics.ObserveResolve(time.Now())
	}
	if r.closed.Load() {
		return nil, dErrors.New(dErrors.CodeInternal, "tenant resolver is closed")
	}
	if h, ok := r.handles.Load(tenantID); ok {
		return h.(ports.Handle), nil
	}

	tenant, ok := r.registry.Lookup(tenantID)
	if !ok {
		r.fail("not_found")
		return nil, fmt.Errorf("%w: %q", models.ErrTenantNotFound, tenantID)
	}

	v, err, _ := r.group.Do(tenantID, func() (any, error) {
		if h, ok := r.handles.Load(tenantID); ok {
			return h, nil
		}
		// the construction is shared by every waiter, so it outlives the first caller
		h, err := r.factory.Open(context.WithoutCancel(ctx), tenant)
		if err != nil {
			return nil, err
		}
		r.handles.Store(tenantID, h)
		if r.metrics != nil {
			r.metrics.IncrementHandlesOpened()
		}
		r.logger.InfoContext(ctx, "tenant store opened",
			"tenant_id", tenantID,
			"driver", string(tenant.Driver),
		)
		return h, nil
	})
	if err != nil {
		r.fail("open")
		r.logger.ErrorContext(ctx, "failed to open tenant store", "tenant_id", tenantID, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "open tenant store")
	}
	return v.(ports.Handle), nil
}

func (r *Resolver) fail(reason string) {
	if r.metrics != nil {
		r.metrics.IncrementResolveFailure(reason)
	}
}

// Close releases every cached handle. Resolve fails afterwards.
func (r *Resolver) Close() {
	r.closed.Store(true)
	r.handles.Range(func(key, value any) bool {
		value.(ports.Handle).Close()
		r.handles.Delete(key)
		return true
	})
}
