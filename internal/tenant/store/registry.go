// Package store holds the tenant registry: the list of tenants this process
// serves and where each one's data lives.
package store

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"orgtrakker/internal/tenant/models"
)

const registryVersion = 1

type registryFile struct {
	Version int             `yaml:"version"`
	Tenants []models.Tenant `yaml:"tenants"`
}

// Registry is an in-memory tenant registry. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tenants map[string]models.Tenant
}

// NewRegistry validates tenants and indexes them by id.
func NewRegistry(tenants ...models.Tenant) (*Registry, error) {
	r := &Registry{tenants: make(map[string]models.Tenant, len(tenants))}
	for _, t := range tenants {
		if err := r.Add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFile reads a YAML registry. ${VAR} references in DSNs are expanded
// from the environment so credentials stay out of the file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenant registry: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML registry document.
func Parse(data []byte) (*Registry, error) {
	var doc registryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tenant registry: %w", err)
	}
	if doc.Version != registryVersion {
		return nil, fmt.Errorf("tenant registry version %d is not supported", doc.Version)
	}
	for i := range doc.Tenants {
		doc.Tenants[i].DSN = os.ExpandEnv(doc.Tenants[i].DSN)
	}
	return NewRegistry(doc.Tenants...)
}

// Add registers t, replacing nothing: duplicate ids are an error.
func (r *Registry) Add(t models.Tenant) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.tenants[t.ID]; dup {
		return fmt.Errorf("tenant %q is registered twice", t.ID)
	}
	r.tenants[t.ID] = t
	return nil
}

// Lookup returns an enabled tenant.
func (r *Registry) Lookup(id string) (models.Tenant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok || t.Disabled {
		return models.Tenant{}, false
	}
	return t, true
}

// IDs lists registered tenant ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
