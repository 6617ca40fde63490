package models

import (
	"strings"

	dErrors "orgtrakker/pkg/domain-errors"
	"orgtrakker/pkg/platform/sentinel"
)

// Driver selects the store implementation backing a tenant.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Tenant is one customer organization and where its data lives.
//
// Invariants:
//   - ID is non-empty and contains no whitespace
//   - a postgres tenant has a DSN
//   - Driver is postgres or memory (empty means postgres)
type Tenant struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Driver Driver `yaml:"driver,omitempty" json:"driver"`
	DSN    string `yaml:"dsn,omitempty" json:"-"`
	// TemplatesFile optionally seeds the tenant's template store on open.
	TemplatesFile string `yaml:"templates_file,omitempty" json:"-"`
	Disabled      bool   `yaml:"disabled,omitempty" json:"disabled"`
}

// ErrTenantNotFound is returned for unknown or disabled tenants. It carries
// the tenant_not_found code and matches sentinel.ErrNotFound.
var ErrTenantNotFound = dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeTenantNotFound, "tenant not found")

// Normalize trims identifiers and applies the default driver.
func (t *Tenant) Normalize() {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.DSN = strings.TrimSpace(t.DSN)
	if t.Driver == "" {
		t.Driver = DriverPostgres
	}
}

// Validate checks the invariants. Call Normalize first.
func (t *Tenant) Validate() error {
	if t.ID == "" || strings.ContainsAny(t.ID, " \t\r\n") {
		return dErrors.New(dErrors.CodeBadRequest, "tenant id must be non-empty and contain no whitespace")
	}
	switch t.Driver {
	case DriverPostgres:
		if t.DSN == "" {
			return dErrors.New(dErrors.CodeBadRequest, "tenant "+t.ID+": postgres tenants need a dsn")
		}
	case DriverMemory:
	default:
		return dErrors.New(dErrors.CodeBadRequest, "tenant "+t.ID+": unknown driver "+string(t.Driver))
	}
	return nil
}
