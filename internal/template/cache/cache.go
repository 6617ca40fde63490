// Package cache adds a Redis read-through cache in front of a tenant's
// template store. Templates change rarely and are read on every write.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"orgtrakker/internal/records/ports"
	tplmodels "orgtrakker/internal/template/models"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "orgtrakker_template_cache_lookups_total",
	Help: "Template cache lookups by result (hit, miss, error)",
}, []string{"result"})

const keyPrefix = "orgtrakker:template:"

// TemplateStore serves templates from Redis, falling back to the wrapped
// store. Redis failures degrade to uncached reads; they never fail a write.
type TemplateStore struct {
	next     ports.TemplateStore
	client   redis.Cmdable
	tenantID string
	ttl      time.Duration
	logger   *slog.Logger
}

// Option configures a TemplateStore.
type Option func(*TemplateStore)

// WithLogger sets the logger for degraded-cache warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TemplateStore) {
		s.logger = logger
	}
}

// New wraps next. Keys are namespaced by tenantID.
func New(next ports.TemplateStore, client redis.Cmdable, tenantID string, ttl time.Duration, opts ...Option) *TemplateStore {
	s := &TemplateStore{
		next:     next,
		client:   client,
		tenantID: tenantID,
		ttl:      ttl,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var _ ports.TemplateStore = (*TemplateStore)(nil)

func (s *TemplateStore) key(id string) string {
	return keyPrefix + s.tenantID + ":" + id
}

func (s *TemplateStore) Get(ctx context.Context, id string) (*tplmodels.Template, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	switch {
	case err == nil:
		var tpl tplmodels.Template
		if jsonErr := json.Unmarshal(raw, &tpl); jsonErr == nil {
			lookups.WithLabelValues("hit").Inc()
			return &tpl, nil
		}
		lookups.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "discarding undecodable cached template", "tenant_id", s.tenantID, "template_id", id)
	case errors.Is(err, redis.Nil):
		lookups.WithLabelValues("miss").Inc()
	default:
		lookups.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "template cache read failed", "tenant_id", s.tenantID, "template_id", id, "error", err)
	}

	tpl, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(tpl); err == nil {
		if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "template cache write failed", "tenant_id", s.tenantID, "template_id", id, "error", err)
		}
	}
	return tpl, nil
}

// Save writes through and invalidates the cached copy.
func (s *TemplateStore) Save(ctx context.Context, tpl *tplmodels.Template) error {
	if err := s.next.Save(ctx, tpl); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(tpl.ID)).Err(); err != nil {
		s.logger.WarnContext(ctx, "template cache invalidation failed", "tenant_id", s.tenantID, "template_id", tpl.ID, "error", err)
	}
	return nil
}
