package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/records/models"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New("acme")
	s.ctx = context.Background()
}

func newRecord(kind tplmodels.Kind, businessID string) *models.Record {
	nested := answers.NewNested()
	nested.Set("g1", "f1", businessID)
	return &models.Record{
		ID:         uuid.New(),
		TenantID:   "acme",
		Kind:       kind,
		BusinessID: businessID,
		TemplateID: "tpl-" + string(kind),
		Answers:    nested,
		CreatedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *StoreSuite) TestRecordLookups() {
	records := s.store.Records()
	emp := newRecord(tplmodels.KindEmployee, "E1")
	emp.Username = "ann"
	s.Require().NoError(records.Create(s.ctx, emp))

	s.Run("find by id returns a copy", func() {
		found, err := records.FindByID(s.ctx, emp.ID)
		s.Require().NoError(err)
		s.Equal("E1", found.BusinessID)

		found.Answers.Set("g1", "f1", "mutated")
		again, err := records.FindByID(s.ctx, emp.ID)
		s.Require().NoError(err)
		v, _ := again.Answers.Get("g1", "f1")
		s.Equal("E1", v)
	})

	s.Run("find by business id is scoped to kind", func() {
		_, err := records.FindByBusinessID(s.ctx, tplmodels.KindJobRole, "E1")
		s.ErrorIs(err, sentinel.ErrNotFound)

		found, err := records.FindByBusinessID(s.ctx, tplmodels.KindEmployee, "E1")
		s.Require().NoError(err)
		s.Equal(emp.ID, found.ID)
	})

	s.Run("username lookup ignores case", func() {
		ids, err := records.IDsByUsername(s.ctx, tplmodels.KindEmployee, "ANN")
		s.Require().NoError(err)
		s.Equal([]uuid.UUID{emp.ID}, ids)
	})

	s.Run("employee existence", func() {
		ok, err := records.EmployeeExists(s.ctx, "E1")
		s.Require().NoError(err)
		s.True(ok)
		ok, err = records.EmployeeExists(s.ctx, "E404")
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *StoreSuite) TestUniqueIndexes() {
	records := s.store.Records()
	s.Require().NoError(records.Create(s.ctx, newRecord(tplmodels.KindEmployee, "E1")))

	s.Run("same business id and kind is rejected", func() {
		err := records.Create(s.ctx, newRecord(tplmodels.KindEmployee, "E1"))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("same business id in another kind is allowed", func() {
		s.NoError(records.Create(s.ctx, newRecord(tplmodels.KindScorecard, "E1")))
	})

	s.Run("soft-deleted rows free the business id", func() {
		old := newRecord(tplmodels.KindJobRole, "JR-1")
		s.Require().NoError(records.Create(s.ctx, old))
		old.MarkDeleted("hr.admin", time.Now())
		s.Require().NoError(records.Update(s.ctx, old))

		s.NoError(records.Create(s.ctx, newRecord(tplmodels.KindJobRole, "JR-1")))
		_, err := records.FindByID(s.ctx, old.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestJobRolesAndRanks() {
	records := s.store.Records()
	s.Require().NoError(s.store.Templates().Save(s.ctx, &tplmodels.Template{ID: "tpl-job_role", Kind: tplmodels.KindJobRole}))
	s.Require().NoError(s.store.Templates().Save(s.ctx, &tplmodels.Template{ID: "tpl-retired", Kind: tplmodels.KindJobRole, Deleted: true}))
	s.Require().NoError(records.Create(s.ctx, newRecord(tplmodels.KindJobRole, "JR-1")))
	s.Require().NoError(records.Create(s.ctx, newRecord(tplmodels.KindJobRole, "JR-2")))
	retired := newRecord(tplmodels.KindJobRole, "JR-3")
	retired.TemplateID = "tpl-retired"
	s.Require().NoError(records.Create(s.ctx, retired))
	orphan := newRecord(tplmodels.KindJobRole, "JR-4")
	orphan.TemplateID = "tpl-missing"
	s.Require().NoError(records.Create(s.ctx, orphan))

	roles, err := records.ValidJobRoles(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[string]struct{}{"JR-1": {}, "JR-2": {}}, roles, "roles on deleted or missing templates are not valid")

	for bid, rank := range map[string]int{"LVL-1": 1, "LVL-2": 1, "LVL-3": 2} {
		lvl := newRecord(tplmodels.KindRoleLevel, bid)
		lvl.Rank = &rank
		s.Require().NoError(records.Create(s.ctx, lvl))
	}
	dups, err := records.DuplicateRanks(s.ctx)
	s.Require().NoError(err)
	s.Len(dups, 2)
	for _, d := range dups {
		s.Equal(1, *d.Rank)
	}
}

func (s *StoreSuite) TestIdentities() {
	identities := s.store.Identities()
	recordID := uuid.New()
	identity := &models.Identity{ID: uuid.New(), RecordID: recordID, Username: "ann", PasswordHash: "hash"}
	s.Require().NoError(identities.Create(s.ctx, identity))

	s.Run("usernames are unique", func() {
		err := identities.Create(s.ctx, &models.Identity{ID: uuid.New(), Username: "Ann"})
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("soft delete by record", func() {
		s.Require().NoError(identities.SoftDeleteByRecord(s.ctx, recordID))
		_, err := identities.FindByRecordID(s.ctx, recordID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		ids, err := identities.RecordIDsByUsername(s.ctx, "ann")
		s.Require().NoError(err)
		s.Empty(ids)
	})
}

func (s *StoreSuite) TestRunInTx() {
	s.Run("rollback restores every collection", func() {
		rec := newRecord(tplmodels.KindEmployee, "E7")
		boom := errors.New("boom")

		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			s.Require().NoError(s.store.Records().Create(ctx, rec))
			s.Require().NoError(s.store.Identities().Create(ctx, &models.Identity{ID: uuid.New(), RecordID: rec.ID, Username: "e7"}))
			s.Require().NoError(s.store.Files().Create(ctx, &models.AnswerFile{ID: uuid.New(), RecordID: rec.ID, FieldID: "f9"}))
			return boom
		})
		s.ErrorIs(err, boom)

		_, err = s.store.Records().FindByID(s.ctx, rec.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.Identities().FindByRecordID(s.ctx, rec.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		files, err := s.store.Files().ListByRecord(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Empty(files)
	})

	s.Run("nested calls join the outer transaction", func() {
		rec := newRecord(tplmodels.KindEmployee, "E8")
		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			return s.store.RunInTx(ctx, func(ctx context.Context) error {
				return s.store.Records().Create(ctx, rec)
			})
		})
		s.Require().NoError(err)
		_, err = s.store.Records().FindByID(s.ctx, rec.ID)
		s.NoError(err)
	})
}

func (s *StoreSuite) TestTemplates() {
	tpl := &tplmodels.Template{ID: "tpl-1", Kind: tplmodels.KindEmployee, Name: "Employee"}
	s.Require().NoError(s.store.Templates().Save(s.ctx, tpl))

	got, err := s.store.Templates().Get(s.ctx, "tpl-1")
	s.Require().NoError(err)
	s.Equal("Employee", got.Name)

	_, err = s.store.Templates().Get(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
