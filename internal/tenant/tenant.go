// Package tenant maps tenant ids to their data stores.
package tenant

import (
	"orgtrakker/internal/tenant/models"
	"orgtrakker/internal/tenant/service"
	"orgtrakker/internal/tenant/store"
)

// Resolver resolves tenant ids to store handles.
type Resolver = service.Resolver

// ErrTenantNotFound is returned for unknown or disabled tenants.
var ErrTenantNotFound = models.ErrTenantNotFound

// LoadRegistry reads the YAML tenant registry at path.
func LoadRegistry(path string) (*store.Registry, error) {
	return store.LoadFile(path)
}

// NewResolver constructs a Resolver over registry and factory.
func NewResolver(registry service.Registry, factory service.HandleFactory, opts ...service.Option) *Resolver {
	return service.New(registry, factory, opts...)
}
