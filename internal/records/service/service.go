// Package service orchestrates record writes for every record kind.
//
// A write moves through resolve, validate, uniqueness, persist, diff and
// audit in that order. Everything that can reject the write runs before the
// transaction begins; once the transaction commits, diff and audit problems
// are logged and never undo it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/audit"
	"orgtrakker/internal/diff"
	"orgtrakker/internal/records/metrics"
	"orgtrakker/internal/records/models"
	"orgtrakker/internal/records/ports"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/internal/template/schema"
	"orgtrakker/internal/uniqueness"
	"orgtrakker/internal/validation"
	dErrors "orgtrakker/pkg/domain-errors"
	"orgtrakker/pkg/platform/sentinel"
	"orgtrakker/pkg/requestcontext"
)

// TenantResolver returns the data store of a tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, tenantID string) (ports.Handle, error)
}

// Auditor receives an event after every committed write. It must not fail
// the caller.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service implements create, update, delete and file attachment for records.
type Service struct {
	tenants    TenantResolver
	engine     *validation.Engine
	auditor    Auditor
	validation validation.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithValidationConfig sets the policy passed to every validation call.
func WithValidationConfig(cfg validation.Config) Option {
	return func(s *Service) {
		s.validation = cfg
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. auditor may be nil, in which case no events
// are emitted.
func New(tenants TenantResolver, engine *validation.Engine, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		tenants:    tenants,
		engine:     engine,
		auditor:    auditor,
		validation: validation.DefaultConfig(),
		logger:     slog.Default(),
		tracer:     otel.Tracer("orgtrakker/records"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileUpload is metadata for a file already placed in object storage.
type FileUpload struct {
	GroupID   string `json:"group_id"`
	FieldID   string `json:"field_id"`
	FileName  string `json:"file_name"`
	Path      string `json:"file_path"`
	SizeBytes int64  `json:"size_bytes"`
}

// WriteRequest creates a record.
type WriteRequest struct {
	TenantID   string
	Kind       tplmodels.Kind
	TemplateID string
	// BusinessID is used when the template has no business-id field or the
	// field was left blank; when both are empty an id is generated.
	BusinessID string
	Answers    answers.Set
	Files      []FileUpload
}

// UpdateRequest merges Answers over the stored answers of a record.
type UpdateRequest struct {
	TenantID   string
	Kind       tplmodels.Kind
	BusinessID string
	Answers    answers.Set
}

type DeleteRequest struct {
	TenantID   string
	Kind       tplmodels.Kind
	BusinessID string
}

type AttachFilesRequest struct {
	TenantID   string
	Kind       tplmodels.Kind
	BusinessID string
	Files      []FileUpload
}

// WriteResult is a committed write. Changes is set for updates and file
// attachments.
type WriteResult struct {
	Record  *models.Record     `json:"record"`
	Changes []diff.FieldChange `json:"changes,omitempty"`
}

// Create validates and stores a new record, plus its login account when
// the record is an employee.
func (s *Service) Create(ctx context.Context, req WriteRequest) (*WriteResult, error) {
	ctx, w := s.begin(ctx, "records.Create", req.TenantID, req.Kind, audit.ActionCreate)
	defer w.end()

	h, err := s.tenants.Resolve(ctx, req.TenantID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}
	idx, err := s.loadIndex(ctx, h, req.Kind, req.TemplateID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}

	res, err := s.engine.Validate(ctx, idx, req.Answers, validation.Options{
		References: h.Records(),
		Config:     s.validation,
	})
	if err != nil {
		return nil, w.fail(stageValidate, err)
	}
	if req.Kind == tplmodels.KindEmployee {
		if err := requireEmployeeFields(idx, res.Values); err != nil {
			return nil, w.fail(stageValidate, err)
		}
	}
	files, err := checkUploads(idx, req.Files)
	if err != nil {
		return nil, w.fail(stageValidate, err)
	}

	now := requestcontext.Now(ctx)
	stored := res.Answers
	bid := businessID(idx, res.Values, req.BusinessID, req.Kind, now)
	if meta, ok := idx.FirstByRole(schema.RoleBusinessID); ok {
		if _, answered := roleValue(idx, res.Values, schema.RoleBusinessID); !answered {
			stored.Set(meta.GroupID, meta.FieldID, bid)
		}
	}
	values := stored.Flatten()

	username := ""
	if req.Kind == tplmodels.KindEmployee {
		username = loginName(idx, values, bid)
	}
	if err := uniqueness.New(h.Records(), h.Identities()).CheckUnique(ctx, req.Kind, uniqueness.Candidate{
		BusinessID: bid,
		Username:   username,
	}, uuid.Nil); err != nil {
		return nil, w.fail(stageUniqueness, err)
	}

	actor := requestcontext.ActorFrom(ctx).Username
	record := &models.Record{
		ID:         uuid.New(),
		TenantID:   req.TenantID,
		Kind:       req.Kind,
		BusinessID: bid,
		Username:   username,
		TemplateID: idx.Template().ID,
		Answers:    stored,
		CreatedBy:  actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyDerived(record, idx, values)

	err = h.Tx().RunInTx(ctx, func(ctx context.Context) error {
		if err := h.Records().Create(ctx, record); err != nil {
			return err
		}
		if record.Kind == tplmodels.KindEmployee {
			identity := identityFrom(idx, values, nil)
			identity.ID = uuid.New()
			identity.RecordID = record.ID
			identity.TenantID = req.TenantID
			identity.Username = username
			identity.CreatedAt = now
			identity.UpdatedAt = now
			if err := h.Identities().Create(ctx, identity); err != nil {
				return err
			}
		}
		return s.createFiles(ctx, h, record.ID, files, now)
	})
	if err != nil {
		return nil, w.fail(stagePersist, persistError(err, bid, username))
	}
	w.persisted(record)

	s.emit(ctx, record, audit.ActionCreate, "Create", nil)
	w.done()
	return &WriteResult{Record: record}, nil
}

// Update merges the submitted answers over the stored ones, validates the
// result and records which fields changed.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*WriteResult, error) {
	ctx, w := s.begin(ctx, "records.Update", req.TenantID, req.Kind, audit.ActionUpdate)
	defer w.end()

	h, err := s.tenants.Resolve(ctx, req.TenantID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}
	current, err := findRecord(ctx, h, req.Kind, req.BusinessID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}
	idx, err := s.loadIndex(ctx, h, req.Kind, current.TemplateID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}

	before := current.FlatAnswers()
	res, err := s.engine.Validate(ctx, idx, req.Answers, validation.Options{
		Existing:   before,
		References: h.Records(),
		Config:     s.validation,
	})
	if err != nil {
		return nil, w.fail(stageValidate, err)
	}
	merged := answers.Merge(current.Answers, res.Answers)
	after := merged.Flatten()
	if req.Kind == tplmodels.KindEmployee {
		if err := requireEmployeeFields(idx, after); err != nil {
			return nil, w.fail(stageValidate, err)
		}
	}

	bid := current.BusinessID
	if v, ok := roleValue(idx, after, schema.RoleBusinessID); ok {
		bid = v
	}
	username := ""
	if req.Kind == tplmodels.KindEmployee {
		username = loginName(idx, after, bid)
	}
	if err := uniqueness.New(h.Records(), h.Identities()).CheckUnique(ctx, req.Kind, uniqueness.Candidate{
		BusinessID: bid,
		Username:   username,
	}, current.ID); err != nil {
		return nil, w.fail(stageUniqueness, err)
	}

	now := requestcontext.Now(ctx)
	next := *current
	next.BusinessID = bid
	next.Username = username
	next.Answers = merged
	next.UpdatedBy = requestcontext.ActorFrom(ctx).Username
	next.UpdatedAt = now
	applyDerived(&next, idx, after)

	err = h.Tx().RunInTx(ctx, func(ctx context.Context) error {
		if err := h.Records().Update(ctx, &next); err != nil {
			return err
		}
		if next.Kind != tplmodels.KindEmployee {
			return nil
		}
		prev, err := h.Identities().FindByRecordID(ctx, next.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		identity := identityFrom(idx, after, prev)
		identity.RecordID = next.ID
		identity.TenantID = next.TenantID
		identity.Username = username
		identity.UpdatedAt = now
		if prev == nil {
			identity.ID = uuid.New()
			identity.CreatedAt = now
			return h.Identities().Create(ctx, identity)
		}
		return h.Identities().Update(ctx, identity)
	})
	if err != nil {
		return nil, w.fail(stagePersist, persistError(err, bid, username))
	}
	w.persisted(&next)

	changes := diff.Diff(before, after, idx.LabelOf, diff.WithSensitive(idx.IsSensitive))
	w.diffed(len(changes))

	s.emit(ctx, &next, audit.ActionUpdate, "Update", changes)
	w.done()
	return &WriteResult{Record: &next, Changes: changes}, nil
}

// Delete soft-deletes a record together with its login account and file
// metadata in one transaction.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*WriteResult, error) {
	ctx, w := s.begin(ctx, "records.Delete", req.TenantID, req.Kind, audit.ActionDelete)
	defer w.end()

	h, err := s.tenants.Resolve(ctx, req.TenantID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}
	current, err := findRecord(ctx, h, req.Kind, req.BusinessID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}

	deleted := *current
	deleted.MarkDeleted(requestcontext.ActorFrom(ctx).Username, requestcontext.Now(ctx))
	err = h.Tx().RunInTx(ctx, func(ctx context.Context) error {
		if err := h.Records().Update(ctx, &deleted); err != nil {
			return err
		}
		if err := h.Identities().SoftDeleteByRecord(ctx, deleted.ID); err != nil {
			return err
		}
		return h.Files().SoftDeleteByRecord(ctx, deleted.ID)
	})
	if err != nil {
		return nil, w.fail(stagePersist, persistError(err, deleted.BusinessID, ""))
	}
	w.persisted(&deleted)

	s.emit(ctx, &deleted, audit.ActionDelete, "Delete", nil)
	w.done()
	return &WriteResult{Record: &deleted}, nil
}

// AttachFiles stores file metadata for file fields of an existing record.
// After the upload every required file field must have a file.
func (s *Service) AttachFiles(ctx context.Context, req AttachFilesRequest) (*WriteResult, error) {
	ctx, w := s.begin(ctx, "records.AttachFiles", req.TenantID, req.Kind, audit.ActionUpdate)
	defer w.end()

	h, err := s.tenants.Resolve(ctx, req.TenantID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}
	current, err := findRecord(ctx, h, req.Kind, req.BusinessID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}
	idx, err := s.loadIndex(ctx, h, req.Kind, current.TemplateID)
	if err != nil {
		return nil, w.fail(stageResolve, err)
	}
	stored, err := h.Files().ListByRecord(ctx, current.ID)
	if err != nil {
		return nil, w.fail(stageResolve, dErrors.Wrap(err, dErrors.CodeStorage, "list files"))
	}
	if len(req.Files) == 0 {
		return nil, w.fail(stageValidate, dErrors.New(dErrors.CodeBadRequest, "no files to attach"))
	}
	files, err := checkUploads(idx, req.Files)
	if err != nil {
		return nil, w.fail(stageValidate, err)
	}
	if err := validation.CheckRequiredFiles(idx, fileKeys(stored, files)); err != nil {
		return nil, w.fail(stageValidate, err)
	}

	err = h.Tx().RunInTx(ctx, func(ctx context.Context) error {
		return s.createFiles(ctx, h, current.ID, files, requestcontext.Now(ctx))
	})
	if err != nil {
		return nil, w.fail(stagePersist, persistError(err, current.BusinessID, ""))
	}
	w.persisted(current)

	changes := make([]diff.FieldChange, 0, len(req.Files))
	for _, f := range req.Files {
		changes = append(changes, diff.FieldChange{
			FieldID:    f.FieldID,
			FieldLabel: idx.LabelOf(f.FieldID),
			NewValue:   f.FileName,
			ChangeType: diff.ChangeAdded,
		})
	}
	s.emit(ctx, current, audit.ActionUpdate, "Attach files to", changes)
	w.done()
	return &WriteResult{Record: current, Changes: changes}, nil
}

// RankConflicts reports role levels of a tenant that share a rank.
func (s *Service) RankConflicts(ctx context.Context, tenantID string) (*uniqueness.ConflictReport, error) {
	ctx, span := s.tracer.Start(ctx, "records.RankConflicts", trace.WithAttributes(
		attribute.String("tenant_id", tenantID),
	))
	defer span.End()

	h, err := s.tenants.Resolve(ctx, tenantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve tenant")
		return nil, err
	}
	report, err := uniqueness.New(h.Records(), nil).RankConflicts(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rank conflicts")
		return nil, err
	}
	span.SetAttributes(attribute.Int("conflicts", len(report.Conflicts)))
	if s.metrics != nil {
		s.metrics.SetRankConflicts(len(report.Conflicts))
	}
	return report, nil
}

// Get returns a live record with password answers removed.
func (s *Service) Get(ctx context.Context, tenantID string, kind tplmodels.Kind, businessID string) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "records.Get", trace.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	h, err := s.tenants.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	record, err := findRecord(ctx, h, kind, businessID)
	if err != nil {
		return nil, err
	}
	idx, err := s.loadIndex(ctx, h, kind, record.TemplateID)
	if err != nil {
		return nil, err
	}
	out := *record
	out.Answers = withoutSensitive(idx, record.Answers)
	return &out, nil
}

func (s *Service) loadIndex(ctx context.Context, h ports.Handle, kind tplmodels.Kind, templateID string) (*schema.Index, error) {
	if strings.TrimSpace(templateID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "template id is required")
	}
	tpl, err := h.Templates().Get(ctx, templateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("template %s not found", templateID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load template")
	}
	if tpl.Kind != "" && tpl.Kind != kind {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("template %s is for %s records, not %s", templateID, kindLabel(tpl.Kind), kindLabel(kind)))
	}
	return schema.Build(tpl)
}

func findRecord(ctx context.Context, h ports.Handle, kind tplmodels.Kind, businessID string) (*models.Record, error) {
	record, err := h.Records().FindByBusinessID(ctx, kind, strings.TrimSpace(businessID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("%s %s not found", kindLabel(kind), businessID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load record")
	}
	return record, nil
}

// checkUploads rejects uploads that do not target a file field of the
// template, have no path, or fail the type and size limits.
func checkUploads(idx *schema.Index, uploads []FileUpload) ([]FileUpload, error) {
	for _, f := range uploads {
		meta, ok := idx.Lookup(f.GroupID, f.FieldID)
		if !ok || !meta.IsFile() {
			return nil, &validation.Error{
				FieldID: f.FieldID,
				Rule:    validation.RuleUnknownField,
				Message: fmt.Sprintf("field %q is not a file field of this template", f.FieldID),
			}
		}
		if strings.TrimSpace(f.Path) == "" {
			return nil, &validation.Error{
				FieldID: f.FieldID,
				Field:   meta.DisplayLabel(),
				Rule:    validation.RuleRequiredFile,
				Message: meta.DisplayLabel() + " has no file path",
			}
		}
		name := f.FileName
		if name == "" {
			name = f.Path
		}
		if err := validation.CheckUpload(meta, name, f.SizeBytes); err != nil {
			return nil, err
		}
	}
	return uploads, nil
}

func fileKeys(stored []*models.AnswerFile, uploads []FileUpload) []validation.FileKey {
	keys := make([]validation.FileKey, 0, len(stored)+len(uploads))
	for _, f := range stored {
		keys = append(keys, validation.FileKey{GroupID: f.GroupID, FieldID: f.FieldID})
	}
	for _, f := range uploads {
		keys = append(keys, validation.FileKey{GroupID: f.GroupID, FieldID: f.FieldID})
	}
	return keys
}

func (s *Service) createFiles(ctx context.Context, h ports.Handle, recordID uuid.UUID, files []FileUpload, now time.Time) error {
	for _, f := range files {
		if err := h.Files().Create(ctx, &models.AnswerFile{
			ID:        uuid.New(),
			RecordID:  recordID,
			GroupID:   f.GroupID,
			FieldID:   f.FieldID,
			FileName:  f.FileName,
			Path:      f.Path,
			SizeBytes: f.SizeBytes,
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}

// persistError maps store failures inside the write transaction. A unique
// index rejection means a concurrent write won the check-then-write race.
func persistError(err error, businessID, username string) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		if username != "" && strings.Contains(err.Error(), "username") {
			return &uniqueness.ConflictError{Kind: uniqueness.ConflictUsername, Value: username}
		}
		return &uniqueness.ConflictError{Kind: uniqueness.ConflictID, Value: businessID}
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "record no longer exists")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeStorage, "persist record")
}

func (s *Service) emit(ctx context.Context, r *models.Record, action audit.Action, verb string, changes []diff.FieldChange) {
	if s.auditor == nil {
		return
	}
	label := entityLabel(r.Kind, r.Name)
	s.auditor.Emit(ctx, audit.Event{
		TenantID:    r.TenantID,
		EntityType:  string(r.Kind),
		EntityID:    r.BusinessID,
		EntityLabel: label,
		Action:      action,
		Description: fmt.Sprintf("%s %s: %s", verb, kindLabel(r.Kind), label),
		Changes:     changes,
	})
}
