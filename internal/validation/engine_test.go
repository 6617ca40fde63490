package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/template/models"
	"orgtrakker/internal/template/schema"
	"orgtrakker/internal/uniqueness"
	dErrors "orgtrakker/pkg/domain-errors"
)

type fakeReferences struct {
	employees map[string]bool
	jobRoles  map[string]struct{}
	err       error
	jobCalls  int
}

func (f *fakeReferences) EmployeeExists(_ context.Context, businessID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.employees[businessID], nil
}

func (f *fakeReferences) ValidJobRoles(_ context.Context) (map[string]struct{}, error) {
	f.jobCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.jobRoles, nil
}

type EngineSuite struct {
	suite.Suite
	ctx    context.Context
	engine *Engine
	refs   *fakeReferences
	now    time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.engine = New()
	s.refs = &fakeReferences{
		employees: map[string]bool{"E1": true},
		jobRoles:  map[string]struct{}{"jr-eng": {}},
	}
	s.now = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)
}

func (s *EngineSuite) opts() Options {
	cfg := DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	return Options{Now: s.now, References: s.refs, Config: cfg}
}

func (s *EngineSuite) index(fields ...models.Field) *schema.Index {
	tpl := &models.Template{
		ID:     "tpl-1",
		Kind:   models.KindEmployee,
		Groups: []models.Group{{ID: "g1", Label: "Main", Fields: fields}},
	}
	idx, err := schema.Build(tpl)
	s.Require().NoError(err)
	return idx
}

func (s *EngineSuite) submit(idx *schema.Index, kv ...any) (*Result, error) {
	n := answers.NewNested()
	flat := answers.FlatOf(kv...)
	flat.Range(func(k string, v any) bool {
		n.Set("g1", k, v)
		return true
	})
	return s.engine.Validate(s.ctx, idx, answers.FromNested(n), s.opts())
}

func (s *EngineSuite) requireRule(err error, rule Rule) *Error {
	s.Require().Error(err)
	var verr *Error
	s.Require().True(errors.As(err, &verr), "expected *validation.Error, got %T: %v", err, err)
	s.Equal(rule, verr.Rule)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	return verr
}

func (s *EngineSuite) TestRequired() {
	idx := s.index(models.Field{ID: "f1", Label: "Email Address", CustomLabel: "Work Email", Type: models.FieldText, Required: true})

	s.Run("blank value names the customized label", func() {
		_, err := s.submit(idx, "f1", "  ")
		verr := s.requireRule(err, RuleRequired)
		s.Equal("Work Email", verr.Field)
		s.Contains(verr.Error(), "Work Email")
		s.NotContains(verr.Error(), "f1")
	})

	s.Run("missing value on create", func() {
		_, err := s.engine.Validate(s.ctx, idx, answers.FromNested(answers.NewNested()), s.opts())
		s.requireRule(err, RuleRequired)
	})

	s.Run("missing value on update falls back to stored answer", func() {
		opts := s.opts()
		opts.Existing = answers.FlatOf("f1", "ann@example.com")
		res, err := s.engine.Validate(s.ctx, idx, answers.FromNested(answers.NewNested()), opts)
		s.Require().NoError(err)
		s.False(res.Values.Has("f1"))
	})

	s.Run("blank value on update is still rejected", func() {
		opts := s.opts()
		opts.Existing = answers.FlatOf("f1", "ann@example.com")
		_, err := s.engine.Validate(s.ctx, idx, answers.FromFlat(answers.FlatOf("f1", "")), opts)
		s.requireRule(err, RuleRequired)
	})
}

func (s *EngineSuite) TestAge() {
	idx := s.index(models.Field{ID: "dob", Label: "Date of Birth", Type: models.FieldDate, Required: true})

	cases := []struct {
		name string
		dob  string
		rule Rule
	}{
		{"seventeen fails", "2008-06-16", RuleMinAge},
		{"eighteen today passes", "2008-06-15", ""},
		{"one hundred passes", "1926-06-15", ""},
		{"one hundred and one fails", "1925-06-15", RuleMaxAge},
		{"garbage fails as a date", "not-a-date", RuleDate},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.submit(idx, "dob", tc.dob)
			if tc.rule == "" {
				s.NoError(err)
				return
			}
			s.requireRule(err, tc.rule)
		})
	}
}

func (s *EngineSuite) TestPassword() {
	idx := s.index(models.Field{ID: "pw", Label: "Password", Type: models.FieldText, Required: true})

	s.Run("accepted password is returned hashed", func() {
		res, err := s.submit(idx, "pw", "Aa1!aaaa")
		s.Require().NoError(err)
		stored := res.Values.Text("pw")
		s.NotEqual("Aa1!aaaa", stored)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(stored), []byte("Aa1!aaaa")))
		s.True(res.PasswordChanged)
	})

	s.Run("policy violations", func() {
		for _, pw := range []string{"Aa1!aaa", "aa1!aaaa", "AA1!AAAA", "Aaa!aaaa", "Aa1aaaaa", "Aa1!aaa#", "Aa1!aaa é"} {
			_, err := s.submit(idx, "pw", pw)
			s.requireRule(err, RulePassword)
		}
	})

	s.Run("blank password on update keeps the stored hash", func() {
		opts := s.opts()
		opts.Existing = answers.FlatOf("pw", "$2a$04$storedhash")
		res, err := s.engine.Validate(s.ctx, idx, answers.FromFlat(answers.FlatOf("pw", "")), opts)
		s.Require().NoError(err)
		s.Equal("$2a$04$storedhash", res.Values.Text("pw"))
		s.False(res.PasswordChanged)
	})
}

func (s *EngineSuite) TestFormats() {
	idx := s.index(
		models.Field{ID: "email", Label: "Email Address", Type: models.FieldText},
		models.Field{ID: "phone", Label: "Phone Number", Type: models.FieldText},
		models.Field{ID: "contact", Label: "Contact Number", Type: models.FieldText},
	)

	s.Run("valid values pass", func() {
		_, err := s.submit(idx, "email", "ann.lee@example.co", "phone", "(555) 123-4567", "contact", "555.123.4567")
		s.NoError(err)
	})
	s.Run("bad email", func() {
		_, err := s.submit(idx, "email", "ann@", "phone", "5551234567")
		s.requireRule(err, RuleEmail)
	})
	s.Run("bad phone", func() {
		_, err := s.submit(idx, "email", "ann@example.com", "phone", "12-34")
		s.requireRule(err, RulePhone)
	})
	s.Run("contact number uses the phone rule", func() {
		_, err := s.submit(idx, "contact", "+63 912 000")
		s.requireRule(err, RulePhone)
	})
}

func (s *EngineSuite) TestStartDate() {
	idx := s.index(
		models.Field{ID: "start", Label: "Start Date", Type: models.FieldDate},
		models.Field{ID: "dob", Label: "Date of Birth", Type: models.FieldDate},
	)

	s.Run("future start date", func() {
		_, err := s.submit(idx, "start", "2026-06-16")
		s.requireRule(err, RuleFutureDate)
	})
	s.Run("today is allowed", func() {
		_, err := s.submit(idx, "start", "2026-06-15")
		s.NoError(err)
	})
	s.Run("start before eighteenth birthday", func() {
		_, err := s.submit(idx, "start", "2020-01-01", "dob", "2005-01-01")
		s.requireRule(err, RuleStartAfter)
	})
	s.Run("start after eighteenth birthday", func() {
		_, err := s.submit(idx, "start", "2024-01-01", "dob", "2005-01-01")
		s.NoError(err)
	})
}

func (s *EngineSuite) TestReferences() {
	idx := s.index(
		models.Field{ID: "reports_to", Label: "Reports To", Type: models.FieldSelect},
		models.Field{ID: "role", Label: "Job Role", Type: models.FieldJobRole},
	)

	s.Run("dangling reports-to is a reference conflict", func() {
		_, err := s.submit(idx, "reports_to", "E999")
		s.Require().Error(err)
		var conflict *uniqueness.ConflictError
		s.Require().True(errors.As(err, &conflict))
		s.Equal(uniqueness.ConflictReference, conflict.Kind)
		s.Equal("Reports To", conflict.Field)
		s.Equal("E999", conflict.Value)

		var verr *Error
		s.False(errors.As(err, &verr), "dangling reference is not a format error")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("existing reports-to passes", func() {
		_, err := s.submit(idx, "reports_to", "E1")
		s.NoError(err)
	})

	s.Run("empty reports-to is not checked", func() {
		_, err := s.submit(idx, "reports_to", "")
		s.NoError(err)
	})

	s.Run("unknown job role", func() {
		_, err := s.submit(idx, "role", "jr-ghost")
		s.requireRule(err, RuleJobRole)
	})

	s.Run("known job role", func() {
		_, err := s.submit(idx, "role", "jr-eng")
		s.NoError(err)
	})

	s.Run("store failure is a storage error", func() {
		s.refs.err = errors.New("connection reset")
		defer func() { s.refs.err = nil }()
		_, err := s.submit(idx, "reports_to", "E1")
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
	})
}

func (s *EngineSuite) TestUnknownField() {
	idx := s.index(models.Field{ID: "f1", Label: "First Name", Type: models.FieldText})

	_, err := s.submit(idx, "f1", "Ann", "f9", "x")
	s.requireRule(err, RuleUnknownField)

	n := answers.NewNested()
	n.Set("other-group", "f1", "Ann")
	_, err = s.engine.Validate(s.ctx, idx, answers.FromNested(n), s.opts())
	s.requireRule(err, RuleUnknownField)
}

func (s *EngineSuite) TestShortCircuitsInTemplateOrder() {
	idx := s.index(
		models.Field{ID: "a", Label: "First Name", Type: models.FieldText, Required: true},
		models.Field{ID: "b", Label: "Email Address", Type: models.FieldText, Required: true},
	)
	n := answers.NewNested()
	n.Set("g1", "b", "not-an-email")
	n.Set("g1", "a", "")

	_, err := s.engine.Validate(s.ctx, idx, answers.FromNested(n), s.opts())
	verr := s.requireRule(err, RuleRequired)
	s.Equal("a", verr.FieldID)
}

func (s *EngineSuite) TestFilesAndRules() {
	tpl := &models.Template{
		ID: "tpl-files",
		Groups: []models.Group{{
			ID:    "docs",
			Label: "Documents",
			Fields: []models.Field{
				{ID: "resume", Label: "Upload Resume", Type: models.FieldFile, Required: true},
				{ID: "nick", Label: "Nickname", Type: models.FieldText, Rule: `size(value) >= 3`},
			},
			SubGroups: []models.SubGroup{{
				Label:  "Contract 1",
				Fields: []models.Field{{ID: "contract", Label: "Upload Contract", CustomLabel: "Signed Contract", Type: models.FieldFile, Required: true}},
			}},
		}},
	}
	idx, err := schema.Build(tpl)
	s.Require().NoError(err)

	s.Run("file answers become placeholders", func() {
		n := answers.NewNested()
		n.Set("docs", "resume", "C:/fakepath/cv.pdf")
		res, err := s.engine.Validate(s.ctx, idx, answers.FromNested(n), s.opts())
		s.Require().NoError(err)
		v, ok := res.Answers.Get("docs", "resume")
		s.True(ok)
		s.Nil(v)
	})

	s.Run("required file pass uses sub-group ids", func() {
		err := CheckRequiredFiles(idx, []FileKey{{GroupID: "docs", FieldID: "resume"}, {GroupID: "docs", FieldID: "contract"}})
		verr := s.requireRule(err, RuleRequiredFile)
		s.Equal("required file field missing: Signed Contract", verr.Error())

		s.NoError(CheckRequiredFiles(idx, []FileKey{{GroupID: "docs", FieldID: "resume"}, {GroupID: "docs", FieldID: "contract_0"}}))
	})

	s.Run("uploads are limited to small images and PDFs", func() {
		contract, ok := idx.Lookup("docs", "contract_0")
		s.Require().True(ok)

		verr := s.requireRule(CheckUpload(contract, "contract.docx", 100), RuleFileType)
		s.Equal("Signed Contract", verr.Field)
		s.Equal("Signed Contract must be a JPG, PNG, or PDF.", verr.Message)

		verr = s.requireRule(CheckUpload(contract, "contract.pdf", MaxFileBytes+1), RuleFileSize)
		s.Equal("Signed Contract must be less than 5MB.", verr.Message)

		s.requireRule(CheckUpload(contract, "contract", 100), RuleFileType)
		for _, name := range []string{"a.jpg", "a.JPEG", "scan.png", "contract.Pdf"} {
			s.NoError(CheckUpload(contract, name, MaxFileBytes), name)
		}
	})

	s.Run("custom rule", func() {
		n := answers.NewNested()
		n.Set("docs", "nick", "ab")
		_, err := s.engine.Validate(s.ctx, idx, answers.FromNested(n), s.opts())
		s.requireRule(err, RuleCustom)

		n.Set("docs", "nick", "abc")
		_, err = s.engine.Validate(s.ctx, idx, answers.FromNested(n), s.opts())
		s.NoError(err)
	})
}

func (s *EngineSuite) TestBrokenRuleIsSchemaError() {
	idx := s.index(models.Field{ID: "f1", Label: "Nickname", Type: models.FieldText, Rule: `value +`})
	_, err := s.submit(idx, "f1", "abc")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSchema))
}

func (s *EngineSuite) TestJobRolesLoadedOncePerCall() {
	idx := s.index(
		models.Field{ID: "r1", Label: "Primary Role", Type: models.FieldJobRole},
		models.Field{ID: "r2", Label: "Secondary Role", Type: models.FieldJobRole},
	)
	_, err := s.submit(idx, "r1", "jr-eng", "r2", "jr-eng")
	s.Require().NoError(err)
	s.Equal(1, s.refs.jobCalls)
}
