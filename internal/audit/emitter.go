// Package audit turns completed writes into audit events and hands them to
// a sink. Emission is best-effort: a failing sink is logged and counted,
// never reported to the writer.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"orgtrakker/pkg/requestcontext"
)

// Sink accepts audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// EmitError is a sink failure. It is logged by the Emitter and never
// returned to callers.
type EmitError struct {
	EventID uuid.UUID
	Action  Action
	Err     error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit audit event %s (%s): %v", e.EventID, e.Action, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// Emitter fills event defaults and delivers events to a Sink.
type Emitter struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics
	breaker *breaker
	timeout time.Duration
}

type Option func(*Emitter)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Emitter) {
		e.metrics = m
	}
}

// WithBreaker stops calling the sink for cooldown after threshold
// consecutive failures.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(e *Emitter) {
		e.breaker = newBreaker(threshold, cooldown)
	}
}

// WithTimeout bounds each sink call.
func WithTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		e.timeout = d
	}
}

// NewEmitter constructs an Emitter over sink.
func NewEmitter(sink Sink, opts ...Option) *Emitter {
	e := &Emitter{
		sink:    sink,
		logger:  slog.Default(),
		breaker: newBreaker(5, 30*time.Second),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Emit delivers event. It never fails the caller: sink errors become an
// *EmitError in the log. The write being audited has already committed, so
// the request's cancellation does not stop delivery.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil || e.sink == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Actor == (Actor{}) {
		event.Actor = ActorFromContext(ctx)
	}

	if !e.breaker.allow() {
		if e.metrics != nil {
			e.metrics.BreakerDropped.Inc()
		}
		e.logger.WarnContext(ctx, "audit sink circuit open, event dropped",
			"log_type", "audit",
			"event_id", event.ID,
			"action", string(event.Action),
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
		)
		return
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.sink.Append(sinkCtx, event); err != nil {
		emitErr := &EmitError{EventID: event.ID, Action: event.Action, Err: err}
		opened := e.breaker.failure()
		if e.metrics != nil {
			e.metrics.Failures.Inc()
			if opened {
				e.metrics.BreakerState.Set(1)
			}
		}
		e.logger.ErrorContext(ctx, "audit emit failed",
			"log_type", "audit",
			"error", emitErr,
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"circuit_opened", opened,
		)
		return
	}

	e.breaker.success()
	if e.metrics != nil {
		e.metrics.Emitted.WithLabelValues(string(event.Action)).Inc()
		e.metrics.BreakerState.Set(0)
	}
	e.logger.InfoContext(ctx, "audit event emitted",
		"log_type", "audit",
		"event_id", event.ID,
		"tenant_id", event.TenantID,
		"action", string(event.Action),
		"entity_type", event.EntityType,
		"entity_id", event.EntityID,
		"changes", len(event.Changes),
		"actor", event.Actor.Username,
	)
}
