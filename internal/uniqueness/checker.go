// Package uniqueness enforces business-id and username uniqueness and
// reports duplicate role-level ranks.
//
// Checks run before the write transaction begins. They are a fast,
// user-facing path: unique indexes in the store remain the final word
// under concurrent duplicate submissions.
package uniqueness

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"orgtrakker/internal/records/models"
	tplmodels "orgtrakker/internal/template/models"
	dErrors "orgtrakker/pkg/domain-errors"
)

// Store is the read side the checker needs. Every method considers live
// (non-deleted) rows only.
type Store interface {
	IDsByBusinessID(ctx context.Context, kind tplmodels.Kind, businessID string) ([]uuid.UUID, error)
	IDsByUsername(ctx context.Context, kind tplmodels.Kind, username string) ([]uuid.UUID, error)
	// DuplicateRanks returns role levels whose rank is shared with another
	// live role level.
	DuplicateRanks(ctx context.Context) ([]*models.Record, error)
}

// IdentityLookup finds login accounts by username. Returned ids are the
// linked record ids; uuid.Nil marks an account with no record.
type IdentityLookup interface {
	RecordIDsByUsername(ctx context.Context, username string) ([]uuid.UUID, error)
}

// Candidate is the identifying part of a record about to be written.
type Candidate struct {
	BusinessID string
	Username   string
}

// Checker runs uniqueness checks against one tenant's store.
type Checker struct {
	store      Store
	identities IdentityLookup
}

// New returns a Checker. identities may be nil for kinds without logins.
func New(store Store, identities IdentityLookup) *Checker {
	return &Checker{store: store, identities: identities}
}

// CheckUnique fails with *ConflictError when another live record of kind
// already uses the candidate's business id or username. exclude is the
// record being updated; pass uuid.Nil on create.
func (c *Checker) CheckUnique(ctx context.Context, kind tplmodels.Kind, cand Candidate, exclude uuid.UUID) error {
	if bid := strings.TrimSpace(cand.BusinessID); bid != "" {
		ids, err := c.store.IDsByBusinessID(ctx, kind, bid)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "check business id")
		}
		if others(ids, exclude) {
			return &ConflictError{Kind: ConflictID, Value: bid}
		}
	}

	username := strings.TrimSpace(cand.Username)
	if username == "" {
		return nil
	}
	ids, err := c.store.IDsByUsername(ctx, kind, username)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "check username")
	}
	if others(ids, exclude) {
		return &ConflictError{Kind: ConflictUsername, Value: username}
	}
	if c.identities == nil {
		return nil
	}
	ids, err = c.identities.RecordIDsByUsername(ctx, username)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "check identity username")
	}
	if others(ids, exclude) {
		return &ConflictError{Kind: ConflictUsername, Value: username}
	}
	return nil
}

func others(ids []uuid.UUID, exclude uuid.UUID) bool {
	for _, id := range ids {
		if id == uuid.Nil || id != exclude {
			return true
		}
	}
	return false
}

// RankConflict is one rank shared by several role levels.
type RankConflict struct {
	Rank  int      `json:"rank"`
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
	Names []string `json:"names"`
}

// ConflictReport lists duplicate ranks, ordered by rank.
type ConflictReport struct {
	HasConflicts bool           `json:"hasConflicts"`
	Conflicts    []RankConflict `json:"conflicts"`
}

// RankConflicts reports role levels sharing a rank. Duplicate ranks are
// never rejected on write; this read is how they surface.
func (c *Checker) RankConflicts(ctx context.Context) (*ConflictReport, error) {
	levels, err := c.store.DuplicateRanks(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load duplicate ranks")
	}

	byRank := make(map[int][]*models.Record)
	for _, lvl := range levels {
		if lvl.Rank == nil || lvl.Deleted {
			continue
		}
		byRank[*lvl.Rank] = append(byRank[*lvl.Rank], lvl)
	}

	report := &ConflictReport{Conflicts: []RankConflict{}}
	for rank, group := range byRank {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].BusinessID < group[j].BusinessID })
		rc := RankConflict{Rank: rank, Count: len(group)}
		for _, lvl := range group {
			rc.IDs = append(rc.IDs, lvl.BusinessID)
			rc.Names = append(rc.Names, lvl.Name)
		}
		report.Conflicts = append(report.Conflicts, rc)
	}
	sort.Slice(report.Conflicts, func(i, j int) bool { return report.Conflicts[i].Rank < report.Conflicts[j].Rank })
	report.HasConflicts = len(report.Conflicts) > 0
	return report, nil
}
