//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/records/models"
	"orgtrakker/internal/records/store/postgres"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/pkg/platform/sentinel"
	"orgtrakker/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	pool, err := pgxpool.New(s.ctx, s.pg.DSN)
	s.Require().NoError(err)
	s.store = postgres.New(pool, "acme")
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.store.Close()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "answer_files", "identities", "records", "templates"))
}

func record(kind tplmodels.Kind, businessID string) *models.Record {
	nested := answers.NewNested()
	nested.Set("g2", "zeta", "last")
	nested.Set("g2", "alpha", "first")
	nested.Set("g1", "f1", businessID)
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Record{
		ID:         uuid.New(),
		TenantID:   "acme",
		Kind:       kind,
		BusinessID: businessID,
		TemplateID: "tpl",
		Answers:    nested,
		CreatedBy:  "hr.admin",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *PostgresStoreSuite) TestRecordRoundTripKeepsAnswerOrder() {
	r := record(tplmodels.KindEmployee, "E1")
	s.Require().NoError(s.store.Records().Create(s.ctx, r))

	got, err := s.store.Records().FindByBusinessID(s.ctx, tplmodels.KindEmployee, "E1")
	s.Require().NoError(err)
	s.Equal(r.ID, got.ID)
	s.Equal([]string{"g2", "g1"}, got.Answers.GroupIDs())
	g2, _ := got.Answers.Lookup("g2")
	s.Equal([]string{"zeta", "alpha"}, g2.Keys())
}

func (s *PostgresStoreSuite) TestUniqueIndexMapsToAlreadyUsed() {
	s.Require().NoError(s.store.Records().Create(s.ctx, record(tplmodels.KindEmployee, "E1")))

	err := s.store.Records().Create(s.ctx, record(tplmodels.KindEmployee, "E1"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.NoError(s.store.Records().Create(s.ctx, record(tplmodels.KindJobRole, "E1")))
}

func (s *PostgresStoreSuite) TestTransactionRollback() {
	r := record(tplmodels.KindEmployee, "E2")
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Records().Create(ctx, r); err != nil {
			return err
		}
		if err := s.store.Identities().Create(ctx, &models.Identity{
			ID: uuid.New(), RecordID: r.ID, TenantID: "acme", Username: "e2",
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.Records().FindByID(s.ctx, r.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	ids, err := s.store.Identities().RecordIDsByUsername(s.ctx, "e2")
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *PostgresStoreSuite) TestCascadeSoftDelete() {
	r := record(tplmodels.KindEmployee, "E3")
	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Records().Create(ctx, r); err != nil {
			return err
		}
		if err := s.store.Identities().Create(ctx, &models.Identity{
			ID: uuid.New(), RecordID: r.ID, TenantID: "acme", Username: "e3",
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}); err != nil {
			return err
		}
		return s.store.Files().Create(ctx, &models.AnswerFile{
			ID: uuid.New(), RecordID: r.ID, GroupID: "g1", FieldID: "cv", Path: "acme/e3/cv.pdf", CreatedAt: r.CreatedAt,
		})
	})
	s.Require().NoError(err)

	err = s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		r.MarkDeleted("hr.admin", time.Now())
		if err := s.store.Records().Update(ctx, r); err != nil {
			return err
		}
		if err := s.store.Identities().SoftDeleteByRecord(ctx, r.ID); err != nil {
			return err
		}
		return s.store.Files().SoftDeleteByRecord(ctx, r.ID)
	})
	s.Require().NoError(err)

	_, err = s.store.Records().FindByID(s.ctx, r.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Identities().FindByRecordID(s.ctx, r.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	files, err := s.store.Files().ListByRecord(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Empty(files)

	s.NoError(s.store.Records().Create(s.ctx, record(tplmodels.KindEmployee, "E3")))
}

func (s *PostgresStoreSuite) TestDuplicateRanksAndJobRoles() {
	for bid, rank := range map[string]int{"LVL-1": 4, "LVL-2": 4, "LVL-3": 5} {
		lvl := record(tplmodels.KindRoleLevel, bid)
		lvl.Rank = &rank
		s.Require().NoError(s.store.Records().Create(s.ctx, lvl))
	}
	s.Require().NoError(s.store.Templates().Save(s.ctx, &tplmodels.Template{ID: "tpl", Kind: tplmodels.KindJobRole}))
	s.Require().NoError(s.store.Templates().Save(s.ctx, &tplmodels.Template{ID: "tpl-retired", Kind: tplmodels.KindJobRole, Deleted: true}))
	s.Require().NoError(s.store.Records().Create(s.ctx, record(tplmodels.KindJobRole, "JR-1")))
	retired := record(tplmodels.KindJobRole, "JR-2")
	retired.TemplateID = "tpl-retired"
	s.Require().NoError(s.store.Records().Create(s.ctx, retired))

	dups, err := s.store.Records().DuplicateRanks(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(dups, 2)
	s.Equal("LVL-1", dups[0].BusinessID)
	s.Equal("LVL-2", dups[1].BusinessID)

	roles, err := s.store.Records().ValidJobRoles(s.ctx)
	s.Require().NoError(err)
	s.Contains(roles, "JR-1")
	s.NotContains(roles, "JR-2")
	s.NotContains(roles, "LVL-1")
}

func (s *PostgresStoreSuite) TestTemplates() {
	tpl := &tplmodels.Template{
		ID:   "tpl-emp",
		Kind: tplmodels.KindEmployee,
		Name: "Employee",
		Groups: []tplmodels.Group{{
			ID:     "g1",
			Label:  "Basic",
			Fields: []tplmodels.Field{{ID: "f1", Label: "First Name", Type: tplmodels.FieldText, Required: true}},
		}},
	}
	s.Require().NoError(s.store.Templates().Save(s.ctx, tpl))

	got, err := s.store.Templates().Get(s.ctx, "tpl-emp")
	s.Require().NoError(err)
	s.Equal(tplmodels.KindEmployee, got.Kind)
	s.Require().Len(got.Groups, 1)
	s.Equal("First Name", got.Groups[0].Fields[0].Label)
}
