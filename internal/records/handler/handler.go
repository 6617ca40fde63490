package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"orgtrakker/internal/answers"
	"orgtrakker/internal/diff"
	"orgtrakker/internal/records/models"
	"orgtrakker/internal/records/service"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/internal/uniqueness"
	dErrors "orgtrakker/pkg/domain-errors"
	"orgtrakker/pkg/platform/httputil"
	"orgtrakker/pkg/requestcontext"
)

// Service defines the record operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req service.WriteRequest) (*service.WriteResult, error)
	Update(ctx context.Context, req service.UpdateRequest) (*service.WriteResult, error)
	Delete(ctx context.Context, req service.DeleteRequest) (*service.WriteResult, error)
	AttachFiles(ctx context.Context, req service.AttachFilesRequest) (*service.WriteResult, error)
	RankConflicts(ctx context.Context, tenantID string) (*uniqueness.ConflictReport, error)
	Get(ctx context.Context, tenantID string, kind tplmodels.Kind, businessID string) (*models.Record, error)
}

// Handler serves record endpoints under /tenants/{tenant}.
type Handler struct {
	logger  *slog.Logger
	records Service
}

// New creates a new records Handler.
func New(records Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, records: records}
}

// Register mounts the record routes. Authentication and the actor headers
// are handled by middleware on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/tenants/{tenant}", func(r chi.Router) {
		r.Get("/role-levels/rank-conflicts", h.handleRankConflicts)
		r.Post("/{kind}", h.handleCreate)
		r.Get("/{kind}/{businessID}", h.handleGet)
		r.Put("/{kind}/{businessID}", h.handleUpdate)
		r.Delete("/{kind}/{businessID}", h.handleDelete)
		r.Post("/{kind}/{businessID}/files", h.handleAttachFiles)
	})
}

// writeBody carries answers in exactly one declared shape. legacy_answers
// is for clients that cannot say which shape they hold.
type writeBody struct {
	TemplateID  string               `json:"template_id"`
	BusinessID  string               `json:"business_id"`
	Answers     *answers.Nested      `json:"answers"`
	FlatAnswers *answers.Flat        `json:"flat_answers"`
	Legacy      json.RawMessage      `json:"legacy_answers"`
	Files       []service.FileUpload `json:"files"`
}

func (b *writeBody) answerSet() (answers.Set, error) {
	hasLegacy := len(b.Legacy) > 0 && string(b.Legacy) != "null"
	given := 0
	for _, set := range []bool{b.Answers != nil, b.FlatAnswers != nil, hasLegacy} {
		if set {
			given++
		}
	}
	if given > 1 {
		return answers.Set{}, dErrors.New(dErrors.CodeBadRequest, "send only one of answers, flat_answers and legacy_answers")
	}
	switch {
	case b.Answers != nil:
		return answers.FromNested(b.Answers), nil
	case b.FlatAnswers != nil:
		return answers.FromFlat(b.FlatAnswers), nil
	case hasLegacy:
		set, err := answers.ParseLegacy(b.Legacy)
		if err != nil {
			return answers.Set{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid legacy_answers")
		}
		return set, nil
	}
	return answers.FromFlat(answers.NewFlat()), nil
}

type filesBody struct {
	Files []service.FileUpload `json:"files"`
}

// recordResponse omits answers: write results may carry password hashes.
// Clients read answers back through GET, which strips them.
type recordResponse struct {
	ID         uuid.UUID          `json:"id"`
	Kind       tplmodels.Kind     `json:"kind"`
	BusinessID string             `json:"business_id"`
	TemplateID string             `json:"template_id"`
	Name       string             `json:"name,omitempty"`
	Rank       *int               `json:"rank,omitempty"`
	ReportsTo  string             `json:"reports_to,omitempty"`
	Deleted    bool               `json:"deleted"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Changes    []diff.FieldChange `json:"changes,omitempty"`
}

func toResponse(res *service.WriteResult) recordResponse {
	r := res.Record
	return recordResponse{
		ID:         r.ID,
		Kind:       r.Kind,
		BusinessID: r.BusinessID,
		TemplateID: r.TemplateID,
		Name:       r.Name,
		Rank:       r.Rank,
		ReportsTo:  r.ReportsTo,
		Deleted:    r.Deleted,
		UpdatedAt:  r.UpdatedAt,
		Changes:    res.Changes,
	}
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (tplmodels.Kind, bool) {
	kind, ok := tplmodels.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown record kind "+chi.URLParam(r, "kind")))
		return "", false
	}
	return kind, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeJSON[writeBody](w, r, h.logger)
	if !ok {
		return
	}
	set, err := body.answerSet()
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}
	res, err := h.records.Create(r.Context(), service.WriteRequest{
		TenantID:   chi.URLParam(r, "tenant"),
		Kind:       kind,
		TemplateID: body.TemplateID,
		BusinessID: body.BusinessID,
		Answers:    set,
		Files:      body.Files,
	})
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(res))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeJSON[writeBody](w, r, h.logger)
	if !ok {
		return
	}
	set, err := body.answerSet()
	if err != nil {
		h.fail(w, r, "update", err)
		return
	}
	res, err := h.records.Update(r.Context(), service.UpdateRequest{
		TenantID:   chi.URLParam(r, "tenant"),
		Kind:       kind,
		BusinessID: chi.URLParam(r, "businessID"),
		Answers:    set,
	})
	if err != nil {
		h.fail(w, r, "update", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	_, err := h.records.Delete(r.Context(), service.DeleteRequest{
		TenantID:   chi.URLParam(r, "tenant"),
		Kind:       kind,
		BusinessID: chi.URLParam(r, "businessID"),
	})
	if err != nil {
		h.fail(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAttachFiles(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeJSON[filesBody](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.records.AttachFiles(r.Context(), service.AttachFilesRequest{
		TenantID:   chi.URLParam(r, "tenant"),
		Kind:       kind,
		BusinessID: chi.URLParam(r, "businessID"),
		Files:      body.Files,
	})
	if err != nil {
		h.fail(w, r, "attach files", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(res))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	record, err := h.records.Get(r.Context(), chi.URLParam(r, "tenant"), kind, chi.URLParam(r, "businessID"))
	if err != nil {
		h.fail(w, r, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleRankConflicts(w http.ResponseWriter, r *http.Request) {
	report, err := h.records.RankConflicts(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		h.fail(w, r, "rank conflicts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "record request failed",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, "record request rejected",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
