package validation

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"orgtrakker/internal/answers"
)

// Config holds per-call tunables. It is passed with every Validate call;
// the engine keeps no process-wide switches.
type Config struct {
	MinAge int
	MaxAge int
	// MinStartAge is the minimum age, in years, on the start date.
	MinStartAge int
	BcryptCost  int
	// Debug logs every field decision at debug level.
	Debug bool
}

// DefaultConfig mirrors the production policy.
func DefaultConfig() Config {
	return Config{
		MinAge:      18,
		MaxAge:      100,
		MinStartAge: 18,
		BcryptCost:  bcrypt.DefaultCost,
	}
}

// ReferenceChecker answers cross-record questions for reference fields.
type ReferenceChecker interface {
	// EmployeeExists reports whether a live employee has this business id.
	EmployeeExists(ctx context.Context, businessID string) (bool, error)
	// ValidJobRoles returns business ids of live job roles whose template is
	// live. A job role on a deleted or missing template is not valid.
	ValidJobRoles(ctx context.Context) (map[string]struct{}, error)
}

// Options carries everything one Validate call needs besides the answers.
type Options struct {
	// Now anchors age and future-date checks.
	Now time.Time
	// Existing is the stored flat answers when validating an update. Fields
	// missing from the submission fall back to it for the required check.
	Existing   *answers.Flat
	References ReferenceChecker
	Config     Config
}

func (o Options) isUpdate() bool {
	return o.Existing != nil
}
