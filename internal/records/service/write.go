package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"orgtrakker/internal/audit"
	"orgtrakker/internal/records/models"
	tplmodels "orgtrakker/internal/template/models"
	dErrors "orgtrakker/pkg/domain-errors"
)

// stage is the step a write failed in.
type stage string

const (
	stageResolve    stage = "resolve"
	stageValidate   stage = "validate"
	stageUniqueness stage = "uniqueness"
	stagePersist    stage = "persist"
)

// write follows one request through its steps for tracing, metrics and logs.
type write struct {
	s      *Service
	ctx    context.Context
	span   trace.Span
	tenant string
	kind   tplmodels.Kind
	action audit.Action
	start  time.Time
	record *models.Record
}

func (s *Service) begin(ctx context.Context, name, tenantID string, kind tplmodels.Kind, action audit.Action) (context.Context, *write) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("kind", string(kind)),
		attribute.String("action", string(action)),
	))
	return ctx, &write{
		s:      s,
		ctx:    ctx,
		span:   span,
		tenant: tenantID,
		kind:   kind,
		action: action,
		start:  time.Now(),
	}
}

func (w *write) end() {
	if w.s.metrics != nil {
		w.s.metrics.ObserveWrite(string(w.kind), string(w.action), w.start)
	}
	w.span.End()
}

// fail records err against st and returns it unchanged. User-correctable
// rejections log at info; everything else at error.
func (w *write) fail(st stage, err error) error {
	code := dErrors.CodeOf(err)
	w.span.RecordError(err)
	w.span.SetStatus(codes.Error, string(st))
	if w.s.metrics != nil {
		w.s.metrics.IncrementWrite(string(w.kind), string(w.action), "failed")
		w.s.metrics.IncrementRejection(string(code))
	}
	level := slog.LevelError
	switch code {
	case dErrors.CodeValidation, dErrors.CodeConflict, dErrors.CodeNotFound, dErrors.CodeBadRequest:
		level = slog.LevelInfo
	}
	w.s.logger.Log(w.ctx, level, "record write failed",
		"tenant_id", w.tenant,
		"kind", string(w.kind),
		"action", string(w.action),
		"stage", string(st),
		"code", string(code),
		"error", err,
	)
	return err
}

func (w *write) persisted(r *models.Record) {
	w.record = r
	w.span.SetAttributes(
		attribute.String("record_id", r.ID.String()),
		attribute.String("business_id", r.BusinessID),
	)
}

func (w *write) diffed(changes int) {
	w.span.SetAttributes(attribute.Int("changes", changes))
}

func (w *write) done() {
	if w.s.metrics != nil {
		w.s.metrics.IncrementWrite(string(w.kind), string(w.action), "ok")
	}
	w.s.logger.InfoContext(w.ctx, "record written",
		"tenant_id", w.tenant,
		"kind", string(w.kind),
		"action", string(w.action),
		"record_id", w.record.ID.String(),
		"business_id", w.record.BusinessID,
		"duration_ms", time.Since(w.start).Milliseconds(),
	)
}
