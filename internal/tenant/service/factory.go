package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"orgtrakker/internal/records/ports"
	"orgtrakker/internal/records/store/memory"
	"orgtrakker/internal/records/store/postgres"
	"orgtrakker/internal/template/cache"
	tplmodels "orgtrakker/internal/template/models"
	"orgtrakker/internal/tenant/models"
)

// StoreFactory opens memory or postgres tenant stores, optionally putting
// the Redis template cache in front of them.
type StoreFactory struct {
	redis        redis.Cmdable
	templateTTL  time.Duration
	ensureSchema bool
	logger       *slog.Logger
}

type FactoryOption func(*StoreFactory)

// WithTemplateCache caches templates in Redis for ttl.
func WithTemplateCache(client redis.Cmdable, ttl time.Duration) FactoryOption {
	return func(f *StoreFactory) {
		f.redis = client
		f.templateTTL = ttl
	}
}

// WithSchemaBootstrap creates missing postgres tables on open.
func WithSchemaBootstrap() FactoryOption {
	return func(f *StoreFactory) {
		f.ensureSchema = true
	}
}

func WithFactoryLogger(logger *slog.Logger) FactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

func NewStoreFactory(opts ...FactoryOption) *StoreFactory {
	f := &StoreFactory{logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// cachedHandle swaps the template store of an underlying handle.
type cachedHandle struct {
	ports.Handle
	templates ports.TemplateStore
}

func (h *cachedHandle) Templates() ports.TemplateStore { return h.templates }

func (f *StoreFactory) Open(ctx context.Context, tenant models.Tenant) (ports.Handle, error) {
	var handle ports.Handle
	switch tenant.Driver {
	case models.DriverMemory:
		handle = memory.New(tenant.ID)
	case models.DriverPostgres, "":
		store, err := postgres.Open(ctx, tenant.DSN, tenant.ID)
		if err != nil {
			return nil, err
		}
		if f.ensureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				store.Close()
				return nil, err
			}
		}
		handle = store
	default:
		return nil, fmt.Errorf("tenant %s: unknown driver %q", tenant.ID, tenant.Driver)
	}

	if tenant.TemplatesFile != "" {
		if err := seedTemplates(ctx, handle.Templates(), tenant.TemplatesFile); err != nil {
			handle.Close()
			return nil, fmt.Errorf("tenant %s: %w", tenant.ID, err)
		}
	}

	if f.redis != nil {
		handle = &cachedHandle{
			Handle:    handle,
			templates: cache.New(handle.Templates(), f.redis, tenant.ID, f.templateTTL, cache.WithLogger(f.logger)),
		}
	}
	return handle, nil
}

// seedTemplates loads a JSON array of templates into store.
func seedTemplates(ctx context.Context, store ports.TemplateStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}
	var templates []*tplmodels.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		return fmt.Errorf("decode templates %s: %w", path, err)
	}
	for _, tpl := range templates {
		if err := store.Save(ctx, tpl); err != nil {
			return fmt.Errorf("seed template %s: %w", tpl.ID, err)
		}
	}
	return nil
}
