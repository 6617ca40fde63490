// Package relay moves audit events from the SQL outbox to Kafka. Entries
// are marked published only after the broker acknowledged them, so delivery
// is at-least-once.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orgtrakker/internal/audit"
	"orgtrakker/internal/audit/sink/sqlsink"
)

// Outbox is the read side of the SQL sink.
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]sqlsink.Entry, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Publisher sends one encoded event.
type Publisher interface {
	Produce(ctx context.Context, key, payload []byte, action audit.Action) error
}

type Worker struct {
	outbox    Outbox
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.interval = d
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		w.batchSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(outbox Outbox, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		outbox:    outbox,
		publisher: publisher,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.ErrorContext(ctx, "audit relay pass failed", "log_type", "audit", "error", err)
			}
		}
	}
}

// Drain publishes one batch and returns how many entries were delivered.
// It stops at the first publish failure; earlier entries stay delivered.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	entries, err := w.outbox.Pending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	var (
		published []string
		pubErr    error
	)
	for _, e := range entries {
		key := []byte(e.TenantID + "/" + e.EntityType + "/" + e.EntityID)
		if pubErr = w.publisher.Produce(ctx, key, []byte(e.Payload), audit.Action(e.Action)); pubErr != nil {
			break
		}
		published = append(published, e.ID)
	}
	if err := w.outbox.MarkPublished(ctx, published, w.now()); err != nil {
		return 0, err
	}
	return len(published), pubErr
}
